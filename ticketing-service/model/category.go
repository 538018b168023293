package model

import (
	"time"

	"github.com/gosimple/slug"
)

// ===============================
// Database Entities (Internal)
// ===============================

// Category represents the category entity in the database
type Category struct {
	ID          string    `gorm:"type:text;primaryKey" bson:"_id"`
	Name        string    `gorm:"type:text;uniqueIndex:idx_categories_name;not null" bson:"name"`
	Description string    `bson:"description,omitempty"`
	Image       string    `bson:"image,omitempty"`
	Slug        string    `gorm:"index" bson:"slug"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

// RefreshSlug derives the slug from the current name. Call before every save.
func (c *Category) RefreshSlug() {
	c.Slug = slug.Make(c.Name)
}

func (c *Category) ToCategoryResponse() CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Image:       c.Image,
		Slug:        c.Slug,
	}
}

// ===============================
// API DTOs (External)
// ===============================

type CreateCategoryRequest struct {
	Name        string `json:"name" form:"name" validate:"required,notblank,max=50"`
	Description string `json:"description" form:"description" validate:"max=500"`

	Image string `json:"-" form:"-"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" form:"name" validate:"omitempty,notblank,max=50"`
	Description *string `json:"description" form:"description" validate:"omitempty,max=500"`

	Image *string `json:"-" form:"-"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Slug        string `json:"slug"`
}

type CategoryEventsResponse struct {
	Category CategoryResponse `json:"category"`
	Events   []EventResponse  `json:"events"`
}

package model

import "time"

// ===============================
// Database Entities (Internal)
// ===============================

// Event represents the event entity in the database. CategoryID is a weak
// reference: it is only used for lookups and never owns the category.
type Event struct {
	ID          string    `gorm:"type:text;primaryKey" bson:"_id"`
	Name        string    `gorm:"type:text;uniqueIndex:idx_events_name;not null" bson:"name"`
	Description string    `bson:"description,omitempty"`
	CategoryID  *string   `gorm:"type:text;index" bson:"category_id,omitempty"`
	Date        time.Time `gorm:"not null;index" bson:"date"`
	Venue       string    `gorm:"not null" bson:"venue"`
	Price       float64   `gorm:"not null" bson:"price"`
	Image       string    `bson:"image,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

// ToEventResponse converts the entity; category may be nil.
func (e *Event) ToEventResponse(category *Category) EventResponse {
	resp := EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		CategoryID:  e.CategoryID,
		Date:        e.Date,
		Venue:       e.Venue,
		Price:       e.Price,
		Image:       e.Image,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if category != nil {
		c := category.ToCategoryResponse()
		resp.Category = &c
	}
	return resp
}

func (e *Event) ToEventSummary() *EventSummary {
	return &EventSummary{
		ID:    e.ID,
		Name:  e.Name,
		Venue: e.Venue,
		Date:  e.Date,
		Price: e.Price,
		Image: e.Image,
	}
}

// ===============================
// Repository DTOs (Internal)
// ===============================

// EventFilter represents filtering options for repository layer.
// A zero Limit means no limit.
type EventFilter struct {
	Name       string
	Venue      string
	CategoryID string
	DateFrom   *time.Time
	DateTo     *time.Time
	MinPrice   *float64
	MaxPrice   *float64
	Limit      int
	Offset     int
}

// IsEmpty reports whether the filter selects every event.
func (f EventFilter) IsEmpty() bool {
	return f.Name == "" && f.Venue == "" && f.CategoryID == "" &&
		f.DateFrom == nil && f.DateTo == nil && f.MinPrice == nil && f.MaxPrice == nil
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ===============================
// API DTOs (External)
// ===============================

// CreateEventRequest is bound from JSON or multipart form data.
type CreateEventRequest struct {
	Name        string    `json:"name" form:"name" validate:"required,notblank,max=50"`
	Description string    `json:"description" form:"description" validate:"max=500"`
	CategoryID  *string   `json:"category_id" form:"category_id"`
	Date        time.Time `json:"date" form:"date" time_format:"2006-01-02T15:04:05Z07:00" validate:"required"`
	Venue       string    `json:"venue" form:"venue" validate:"required,notblank"`
	Price       float64   `json:"price" form:"price" validate:"required,min=1,max=1000000"`

	// Image is the stored path of an uploaded image, set by the HTTP layer.
	Image string `json:"-" form:"-"`
}

// UpdateEventRequest is a partial update. An empty CategoryID clears the
// category reference.
type UpdateEventRequest struct {
	Name        *string    `json:"name" form:"name" validate:"omitempty,notblank,max=50"`
	Description *string    `json:"description" form:"description" validate:"omitempty,max=500"`
	CategoryID  *string    `json:"category_id" form:"category_id"`
	Date        *time.Time `json:"date" form:"date" time_format:"2006-01-02T15:04:05Z07:00"`
	Venue       *string    `json:"venue" form:"venue" validate:"omitempty,notblank"`
	Price       *float64   `json:"price" form:"price" validate:"omitempty,min=1,max=1000000"`

	Image *string `json:"-" form:"-"`
}

type EventResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	CategoryID  *string           `json:"category_id,omitempty"`
	Category    *CategoryResponse `json:"category,omitempty"`
	Date        time.Time         `json:"date"`
	Venue       string            `json:"venue"`
	Price       float64           `json:"price"`
	Image       string            `json:"image,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// EventSummary is the slice of an event embedded in booking responses.
type EventSummary struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Venue string    `json:"venue"`
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
	Image string    `json:"image,omitempty"`
}

type Pagination struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type EventListResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination Pagination      `json:"pagination"`
}

package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ===============================
// Database Entities (Internal)
// ===============================

// User represents the user entity in the database
type User struct {
	ID           string    `gorm:"type:text;primaryKey" bson:"_id"`
	Name         string    `gorm:"not null" bson:"name"`
	Email        string    `gorm:"type:text;uniqueIndex:idx_users_email;not null" bson:"email"`
	PasswordHash string    `gorm:"not null" bson:"password_hash"`
	Gender       string    `bson:"gender,omitempty"`
	Active       bool      `gorm:"not null" bson:"active"`
	Role         Role      `gorm:"type:text;not null;index" bson:"role"`
	RefreshToken string    `bson:"refresh_token,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// ToUserResponse converts the entity to its API representation.
func (u *User) ToUserResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Gender:    u.Gender,
		Active:    u.Active,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (u *User) ToUserSummary() *UserSummary {
	return &UserSummary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// ===============================
// API DTOs (External)
// ===============================

// RegisterRequest is the self-service sign up payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=4,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female"`
}

// CreateUserRequest is the admin payload; it may set role and active flag.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=4,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female"`
	Role     Role   `json:"role" validate:"omitempty,oneof=user admin"`
	Active   *bool  `json:"active"`
}

// UpdateUserRequest is a partial update; nil fields are left untouched.
type UpdateUserRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=4,max=20"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Gender *string `json:"gender" validate:"omitempty,oneof=male female"`
	Role   *Role   `json:"role" validate:"omitempty,oneof=user admin"`
	Active *bool   `json:"active"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Gender    string    `json:"gender,omitempty"`
	Active    bool      `json:"active"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSummary is the slice of a user embedded in booking responses.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresIn    int64        `json:"expires_in"`
}

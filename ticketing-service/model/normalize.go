package model

import "strings"

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// Normalized returns a copy of the request with surrounding whitespace
// removed and the email lower-cased. Requests are normalized before they
// are validated.
func (r RegisterRequest) Normalized() RegisterRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	return r
}

func (r CreateUserRequest) Normalized() CreateUserRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	return r
}

func (r UpdateUserRequest) Normalized() UpdateUserRequest {
	r.Name = trimmed(r.Name)
	if r.Email != nil {
		email := NormalizeEmail(*r.Email)
		r.Email = &email
	}
	return r
}

func (r LoginRequest) Normalized() LoginRequest {
	r.Email = NormalizeEmail(r.Email)
	return r
}

func (r CreateEventRequest) Normalized() CreateEventRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Venue = strings.TrimSpace(r.Venue)
	r.CategoryID = trimmed(r.CategoryID)
	return r
}

func (r UpdateEventRequest) Normalized() UpdateEventRequest {
	r.Name = trimmed(r.Name)
	r.Venue = trimmed(r.Venue)
	r.CategoryID = trimmed(r.CategoryID)
	return r
}

func (r CreateCategoryRequest) Normalized() CreateCategoryRequest {
	r.Name = strings.TrimSpace(r.Name)
	return r
}

func (r UpdateCategoryRequest) Normalized() UpdateCategoryRequest {
	r.Name = trimmed(r.Name)
	return r
}

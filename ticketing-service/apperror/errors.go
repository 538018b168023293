// Package apperror holds the error identities shared by the service and
// HTTP layers. Specific errors wrap one of the category sentinels so callers
// can match either the exact case or the category with errors.Is.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Categories
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrOperationFailed = errors.New("operation failed")
)

// Not found
var (
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrEventNotFound    = fmt.Errorf("event %w", ErrNotFound)
	ErrBookingNotFound  = fmt.Errorf("booking %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
)

// Conflicts
var (
	ErrAlreadyBooked     = fmt.Errorf("%w: user already booked this event", ErrConflict)
	ErrEmailTaken        = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrEventNameTaken    = fmt.Errorf("%w: event name already exists", ErrConflict)
	ErrCategoryNameTaken = fmt.Errorf("%w: category name already exists", ErrConflict)
)

// Rejections
var (
	ErrInvalidTransition   = fmt.Errorf("%w: booking status transition not allowed", ErrValidation)
	ErrInvalidCredentials  = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrInvalidRefreshToken = fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	ErrInactiveAccount     = fmt.Errorf("%w: account is deactivated", ErrForbidden)
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned by request validation. It matches ErrValidation.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a single-field validation error.
func Invalid(field, message string) error {
	return ValidationErrors{{Field: field, Message: message}}
}

// Failed wraps an unexpected lower-level error as ErrOperationFailed.
// Errors that already carry a domain identity are returned unchanged.
func Failed(err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrOperationFailed, err)
}

// IsDomain reports whether err belongs to one of the categories above.
func IsDomain(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrOperationFailed)
}

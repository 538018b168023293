package model

import (
	"time"

	"github.com/eventix/ticketing/ticketing-service/apperror"
)

// Identity is the verified caller attached to a request by the auth layer.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error   string                `json:"error"`
	Message string                `json:"message"`
	Details []apperror.FieldError `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

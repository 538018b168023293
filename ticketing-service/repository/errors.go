package repository

import "errors"

// Drivers translate their native errors into these.
var (
	// ErrNotFound is returned when a lookup or targeted write matches nothing.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate: entity already exists")
)

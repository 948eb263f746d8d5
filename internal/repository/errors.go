package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write would violate a uniqueness constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrStatusChanged is returned when a compare-and-set status update lost
	// the race against another writer.
	ErrStatusChanged = errors.New("status changed concurrently")
)

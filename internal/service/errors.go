package service

import (
	"context"
	"errors"
	"fmt"

	"ridebook/internal/repository"
)

var (
	// ErrValidation is returned when input violates a field constraint.
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized is returned when the caller has no verified identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller acts on someone else's data.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a write collides with existing state.
	ErrConflict = errors.New("conflict")

	// ErrInvalidTransition is returned when a status change breaks the ride lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnavailable is returned when persistence or an upstream provider cannot be reached.
	// Callers may retry with backoff.
	ErrUnavailable = errors.New("service unavailable")
)

// FieldError describes a single invalid field. It matches ErrValidation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// storeErr passes through the store errors callers can act on and classifies
// everything else as ErrUnavailable.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

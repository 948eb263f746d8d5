package repository

import (
	"context"
	"iter"

	"ridebook/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// ListByCustomer yields the customer's rides, newest first, narrowed by
	// filter. The query runs when the sequence is ranged over, so each range
	// sees a fresh snapshot.
	ListByCustomer(ctx context.Context, customerID string, filter domain.StatusFilter) iter.Seq2[*domain.Ride, error]

	// UpdateStatus moves a ride from one status to another. Returns
	// ErrNotFound for an unknown ride and ErrStatusChanged when the stored
	// status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.RideStatus) error
}

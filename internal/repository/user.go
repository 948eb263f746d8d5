package repository

import (
	"context"

	"ridebook/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create adds a new user. Returns ErrDuplicate if the uid or phone is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByUID retrieves a user by identity-provider subject.
	GetByUID(ctx context.Context, uid string) (*domain.User, error)

	// GetByPhone retrieves a user by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)

	// UpdateName sets the display name of an existing user.
	UpdateName(ctx context.Context, uid, name string) error
}

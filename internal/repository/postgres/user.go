package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

var _ repository.UserRepository = (*UserRepository)(nil)

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (uid, phone, name, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.q.ExecContext(ctx, query, user.UID, user.Phone, user.Name, user.CreatedAt)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByUID retrieves a user by identity-provider subject.
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	query := `SELECT uid, phone, name, created_at FROM users WHERE uid = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, uid))
}

// GetByPhone retrieves a user by phone number.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT uid, phone, name, created_at FROM users WHERE phone = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, phone))
}

// UpdateName sets the display name of an existing user.
func (r *UserRepository) UpdateName(ctx context.Context, uid, name string) error {
	query := `UPDATE users SET name = $1 WHERE uid = $2`
	result, err := r.q.ExecContext(ctx, query, name, uid)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.UID, &user.Phone, &user.Name, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"iter"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

const rideColumns = `id, customer_id, pickup_location, dropoff_location, exact_pickup_location, exact_dropoff_location, contact_number, pickup_date, pickup_time, number_of_passengers, open_to_sharing, ok_to_split_group, status, created_at, updated_at`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

var _ repository.RideRepository = (*RideRepository)(nil)

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.CustomerID,
		ride.PickupLocation,
		ride.DropoffLocation,
		ride.ExactPickupLocation,
		ride.ExactDropoffLocation,
		ride.ContactNumber,
		ride.PickupDate,
		ride.PickupTime,
		ride.NumberOfPassengers,
		ride.OpenToSharing,
		ride.OkToSplitGroup,
		string(ride.Status),
		ride.CreatedAt,
		ride.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// ListByCustomer yields the customer's rides, newest first.
func (r *RideRepository) ListByCustomer(ctx context.Context, customerID string, filter domain.StatusFilter) iter.Seq2[*domain.Ride, error] {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE customer_id = $1`
	args := []any{customerID}
	if status, ok := filter.Status(); ok {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	return func(yield func(*domain.Ride, error) bool) {
		rows, err := r.q.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			ride, err := scanRide(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(ride, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// UpdateStatus moves a ride from one status to another in a single
// compare-and-set statement.
func (r *RideRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RideStatus) error {
	query := `UPDATE rides SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, string(to), id, string(from))
	if isInvalidText(err) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	// Nothing matched: tell a missing ride apart from a lost race.
	var exists bool
	err = r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rides WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrStatusChanged
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	if err := row.Scan(
		&ride.ID,
		&ride.CustomerID,
		&ride.PickupLocation,
		&ride.DropoffLocation,
		&ride.ExactPickupLocation,
		&ride.ExactDropoffLocation,
		&ride.ContactNumber,
		&ride.PickupDate,
		&ride.PickupTime,
		&ride.NumberOfPassengers,
		&ride.OpenToSharing,
		&ride.OkToSplitGroup,
		&ride.Status,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ride, nil
}

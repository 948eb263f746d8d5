package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

var rideColumnNames = []string{
	"id", "customer_id", "pickup_location", "dropoff_location", "exact_pickup_location",
	"exact_dropoff_location", "contact_number", "pickup_date", "pickup_time",
	"number_of_passengers", "open_to_sharing", "ok_to_split_group", "status",
	"created_at", "updated_at",
}

func rideRow(id string, status domain.RideStatus, createdAt time.Time) []driver.Value {
	return []driver.Value{
		id, "abc123", "KGP", "CCU", "Gate 2, IIT Kharagpur", "Howrah Station",
		"+15551234567", "2025-03-01", "14:30", 2, true, false, string(status),
		createdAt, createdAt,
	}
}

func TestRideRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRideRepository(db)
	now := time.Now()
	ride := &domain.Ride{
		ID:                   "ride-1",
		CustomerID:           "abc123",
		PickupLocation:       "KGP",
		DropoffLocation:      "CCU",
		ExactPickupLocation:  "Gate 2, IIT Kharagpur",
		ExactDropoffLocation: "Howrah Station",
		ContactNumber:        "+15551234567",
		PickupDate:           "2025-03-01",
		PickupTime:           "14:30",
		NumberOfPassengers:   2,
		OpenToSharing:        true,
		Status:               domain.RideStatusPendingOffer,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rides")).
		WithArgs("ride-1", "abc123", "KGP", "CCU", "Gate 2, IIT Kharagpur", "Howrah Station",
			"+15551234567", "2025-03-01", "14:30", 2, true, false, "Pending Offer", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, repo.Create(context.Background(), ride))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRideRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(rideColumnNames))

	_, err = NewRideRepository(db).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRideRepository_MalformedIDIsNotFound(t *testing.T) {
	malformed := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}

	t.Run("get", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = $1")).
			WithArgs("abc").
			WillReturnError(malformed)

		_, err = NewRideRepository(db).GetByID(context.Background(), "abc")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("update status", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE rides SET status")).
			WithArgs("Ride Offered", "abc", "Pending Offer").
			WillReturnError(malformed)

		err = NewRideRepository(db).UpdateStatus(context.Background(), "abc", domain.RideStatusPendingOffer, domain.RideStatusRideOffered)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRideRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = $1")).
		WithArgs("ride-1").
		WillReturnRows(sqlmock.NewRows(rideColumnNames).AddRow(rideRow("ride-1", domain.RideStatusRideOffered, createdAt)...))

	ride, err := NewRideRepository(db).GetByID(context.Background(), "ride-1")
	require.NoError(t, err)
	assert.Equal(t, "abc123", ride.CustomerID)
	assert.Equal(t, domain.RideStatusRideOffered, ride.Status)
	assert.Equal(t, 2, ride.NumberOfPassengers)
	assert.True(t, ride.OpenToSharing)
	assert.Equal(t, createdAt, ride.CreatedAt)
}

func TestRideRepository_ListByCustomer_Unfiltered(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	newer := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE customer_id = $1 ORDER BY created_at DESC, id DESC")).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows(rideColumnNames).
			AddRow(rideRow("ride-2", domain.RideStatusCompleted, newer)...).
			AddRow(rideRow("ride-1", domain.RideStatusPendingOffer, older)...))

	var ids []string
	for ride, err := range NewRideRepository(db).ListByCustomer(context.Background(), "abc123", domain.StatusFilter{}) {
		require.NoError(t, err)
		ids = append(ids, ride.ID)
	}
	assert.Equal(t, []string{"ride-2", "ride-1"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRideRepository_ListByCustomer_FilteredAndRestartable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	query := regexp.QuoteMeta("FROM rides WHERE customer_id = $1 AND status = $2")
	createdAt := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(query).
			WithArgs("abc123", "Completed").
			WillReturnRows(sqlmock.NewRows(rideColumnNames).AddRow(rideRow("ride-2", domain.RideStatusCompleted, createdAt)...))
	}

	seq := NewRideRepository(db).ListByCustomer(context.Background(), "abc123", domain.FilterBy(domain.RideStatusCompleted))

	// Each range re-runs the query.
	for i := 0; i < 2; i++ {
		count := 0
		for ride, err := range seq {
			require.NoError(t, err)
			assert.Equal(t, domain.RideStatusCompleted, ride.Status)
			count++
		}
		assert.Equal(t, 1, count)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRideRepository_ListByCustomer_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection refused")
	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE customer_id = $1")).
		WithArgs("abc123").
		WillReturnError(boom)

	var gotErr error
	for _, err := range NewRideRepository(db).ListByCustomer(context.Background(), "abc123", domain.StatusFilter{}) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, boom)
}

func TestRideRepository_UpdateStatus(t *testing.T) {
	update := regexp.QuoteMeta("UPDATE rides SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3")
	exists := regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM rides WHERE id = $1)")

	t.Run("applied", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(update).
			WithArgs("Ride Offered", "ride-1", "Pending Offer").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = NewRideRepository(db).UpdateStatus(context.Background(), "ride-1", domain.RideStatusPendingOffer, domain.RideStatusRideOffered)
		assert.NoError(t, err)
	})

	t.Run("unknown ride", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(exists).WithArgs("ride-9").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err = NewRideRepository(db).UpdateStatus(context.Background(), "ride-9", domain.RideStatusPendingOffer, domain.RideStatusRideOffered)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("lost race", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(exists).WithArgs("ride-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err = NewRideRepository(db).UpdateStatus(context.Background(), "ride-1", domain.RideStatusPendingOffer, domain.RideStatusRideOffered)
		assert.ErrorIs(t, err, repository.ErrStatusChanged)
	})
}

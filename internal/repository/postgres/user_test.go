package postgres

import (
	"context"
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

func TestUserRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (uid, phone, name, created_at)")).
		WithArgs("abc123", "+15551234567", "", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewUserRepository(db).Create(context.Background(), &domain.User{
		UID: "abc123", Phone: "+15551234567", CreatedAt: now,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err = NewUserRepository(db).Create(context.Background(), &domain.User{UID: "abc123", Phone: "+15551234567"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepository_GetByPhone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT uid, phone, name, created_at FROM users WHERE phone = $1")).
		WithArgs("+15551234567").
		WillReturnRows(sqlmock.NewRows([]string{"uid", "phone", "name", "created_at"}).
			AddRow("abc123", "+15551234567", "Asha", createdAt))

	user, err := NewUserRepository(db).GetByPhone(context.Background(), "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, "abc123", user.UID)
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, createdAt, user.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE phone = $1")).
		WithArgs("+10000000000").
		WillReturnRows(sqlmock.NewRows([]string{"uid", "phone", "name", "created_at"}))

	_, err = NewUserRepository(db).GetByPhone(context.Background(), "+10000000000")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UpdateName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	query := regexp.QuoteMeta("UPDATE users SET name = $1 WHERE uid = $2")
	mock.ExpectExec(query).WithArgs("Asha", "abc123").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("Asha", "nobody").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepository(db)
	assert.NoError(t, repo.UpdateName(context.Background(), "abc123", "Asha"))
	assert.ErrorIs(t, repo.UpdateName(context.Background(), "nobody", "Asha"), repository.ErrNotFound)
}

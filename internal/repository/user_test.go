package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipe-hub/recipe-hub/internal/models"
)

func TestUserGetByEmailMiss(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateStatusSkipsAdmins(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	// The lookup filters on is_admin = false, so an admin target is a
	// clean miss rather than an update.
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = .+ AND is_admin = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.UpdateStatus(context.Background(), uuid.New(), models.UserStatusBlocked)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateStatusPersists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = .+ AND is_admin = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status", "is_admin"}).
			AddRow(id, "user@example.com", "active", false))
	mock.ExpectExec(`UPDATE "users" SET .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := repo.UpdateStatus(context.Background(), id, models.UserStatusBlocked)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, models.UserStatusBlocked, user.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

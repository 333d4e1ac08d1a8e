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

func TestLikeInsertNewPair(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectQuery(`INSERT INTO "likes" .*ON CONFLICT \("user_id","recipe_id"\) DO NOTHING RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))

	inserted, err := repo.Insert(context.Background(), &models.Like{
		UserID:   uuid.New(),
		RecipeID: uuid.New(),
	})
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeInsertExistingPairBacksOff(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLikeRepository(db)

	// Conflict path: DO NOTHING returns no rows, so nothing was inserted.
	mock.ExpectQuery(`INSERT INTO "likes" .*DO NOTHING RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	inserted, err := repo.Insert(context.Background(), &models.Like{
		UserID:   uuid.New(),
		RecipeID: uuid.New(),
	})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeDeletePair(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLikeRepository(db)

	userID := uuid.New()
	recipeID := uuid.New()
	mock.ExpectExec(`DELETE FROM "likes" WHERE user_id = .+ AND recipe_id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeletePair(context.Background(), userID, recipeID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeCountByRecipe(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "likes" WHERE recipe_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := repo.CountByRecipe(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

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

func TestRecipeIncrementViewCountIsAtomic(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecipeRepository(db)

	// The increment happens in SQL, never read-modify-write.
	mock.ExpectExec(`UPDATE "recipes" SET "view_count"=view_count \+ .+ WHERE id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IncrementViewCount(context.Background(), uuid.New()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeGetOwnedMissReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecipeRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE id = .+ AND user_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	recipe, err := repo.GetOwned(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, recipe)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeGetByIDMissReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecipeRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	recipe, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, recipe)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeDeleteRemovesAssociationsFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecipeRepository(db)
	id := uuid.New()

	// Pivot rows, likes and comments go before the recipe row, all in
	// one transaction.
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "recipe_ingredients" WHERE recipe_id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "likes" WHERE recipe_id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "comments" WHERE recipe_id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "recipes" WHERE id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeCreateResolvesExistingIngredient(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecipeRepository(db)

	recipeID := uuid.New()
	ingredientID := uuid.New()
	ownerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "recipes" .+RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(recipeID))
	// Catalog hit: DO NOTHING returns no id, so the existing row is
	// fetched instead of a second insert.
	mock.ExpectQuery(`INSERT INTO "ingredients" .*ON CONFLICT \("name"\) DO NOTHING RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "ingredients" WHERE name = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(ingredientID, "flour"))
	mock.ExpectQuery(`INSERT INTO "recipe_ingredients" .+RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	recipe := &models.Recipe{Title: "Bread", Description: "Plain", UserID: ownerID}
	err := repo.CreateWithIngredients(context.Background(), recipe, []models.IngredientPair{
		{Name: "flour", Measurement: "500g"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeUpdatePhotoURL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecipeRepository(db)

	mock.ExpectExec(`UPDATE "recipes" SET "photo_url"=.+,"updated_at"=.+ WHERE id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePhotoURL(context.Background(), uuid.New(), "https://cdn.test/p.jpg"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

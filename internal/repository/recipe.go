package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/recipe-hub/recipe-hub/internal/models"
)

// RecipeRepository owns recipe rows and their ingredient associations.
// The multi-step operations (create, update, clone) run inside a single
// transaction so a failure never leaves a half-populated association set.
type RecipeRepository interface {
	CreateWithIngredients(ctx context.Context, recipe *models.Recipe, pairs []models.IngredientPair) error
	UpdateWithIngredients(ctx context.Context, recipe *models.Recipe, pairs []models.IngredientPair) error
	Clone(ctx context.Context, source *models.Recipe, newOwner uuid.UUID) (*models.Recipe, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Recipe, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	UpdatePhotoURL(ctx context.Context, id uuid.UUID, photoURL string) error
	List(ctx context.Context, search string, offset, limit int) ([]*models.Recipe, int64, error)
	Popular(ctx context.Context, limit int) ([]*models.Recipe, error)
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) CreateWithIngredients(ctx context.Context, recipe *models.Recipe, pairs []models.IngredientPair) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return attachIngredients(tx, recipe.ID, pairs)
	})
}

func (r *recipeRepository) UpdateWithIngredients(ctx context.Context, recipe *models.Recipe, pairs []models.IngredientPair) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(recipe).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}

		// Full-replace sync: upsert the desired set, then drop every
		// association not named in it.
		keep := make([]uuid.UUID, 0, len(pairs))
		seen := make(map[uuid.UUID]bool, len(pairs))
		for _, pair := range pairs {
			ingredient, err := resolveIngredient(tx, pair.Name)
			if err != nil {
				return err
			}
			if seen[ingredient.ID] {
				continue
			}
			seen[ingredient.ID] = true
			keep = append(keep, ingredient.ID)

			assoc := models.RecipeIngredient{
				RecipeID:     recipe.ID,
				IngredientID: ingredient.ID,
				Measurement:  pair.Measurement,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "recipe_id"}, {Name: "ingredient_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"measurement", "updated_at"}),
			}).Create(&assoc).Error; err != nil {
				return fmt.Errorf("failed to sync ingredient %s: %w", pair.Name, err)
			}
		}

		if err := tx.Where("recipe_id = ? AND ingredient_id NOT IN ?", recipe.ID, keep).
			Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to remove stale ingredients: %w", err)
		}
		return nil
	})
}

func (r *recipeRepository) Clone(ctx context.Context, source *models.Recipe, newOwner uuid.UUID) (*models.Recipe, error) {
	clone := &models.Recipe{
		Title:        source.Title,
		Description:  source.Description,
		PhotoURL:     source.PhotoURL,
		ViewCount:    source.ViewCount,
		CookingTime:  source.CookingTime,
		UserID:       newOwner,
		CategoryID:   source.CategoryID,
		Instructions: source.Instructions,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(clone).Error; err != nil {
			return fmt.Errorf("failed to create recipe clone: %w", err)
		}
		// Ingredients are already canonical; copy the pivot rows as-is.
		for _, assoc := range source.Ingredients {
			row := models.RecipeIngredient{
				RecipeID:     clone.ID,
				IngredientID: assoc.IngredientID,
				Measurement:  assoc.Measurement,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to copy ingredient association: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}

func (r *recipeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Ingredients").
		First(&recipe, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

func (r *recipeRepository) GetDetail(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		Preload("Ingredients.Ingredient").
		Preload("Comments").
		First(&recipe, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe detail: %w", err)
	}
	return &recipe, nil
}

// GetOwned conflates ownership and existence: a recipe owned by someone
// else looks exactly like a missing one.
func (r *recipeRepository) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Ingredients").
		Where("id = ? AND user_id = ?", id, userID).
		First(&recipe).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get owned recipe: %w", err)
	}
	return &recipe, nil
}

func (r *recipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to delete recipe ingredients: %w", err)
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return fmt.Errorf("failed to delete recipe likes: %w", err)
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete recipe comments: %w", err)
		}
		if err := tx.Delete(&models.Recipe{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
}

// IncrementViewCount bumps the counter in SQL so concurrent viewers
// never lose updates.
func (r *recipeRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

func (r *recipeRepository) UpdatePhotoURL(ctx context.Context, id uuid.UUID, photoURL string) error {
	if err := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("id = ?", id).
		Update("photo_url", photoURL).Error; err != nil {
		return fmt.Errorf("failed to update photo url: %w", err)
	}
	return nil
}

func (r *recipeRepository) List(ctx context.Context, search string, offset, limit int) ([]*models.Recipe, int64, error) {
	var recipes []*models.Recipe
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Recipe{})
	if search != "" {
		pattern := "%" + search + "%"
		db = db.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	query := db.Preload("User").Preload("Category").Preload("Ingredients.Ingredient")
	if search != "" {
		// Weighted relevance: title matches rank above description matches.
		pattern := "%" + search + "%"
		query = query.
			Select("recipes.*, (CASE WHEN title ILIKE ? THEN 10 ELSE 0 END + CASE WHEN description ILIKE ? THEN 5 ELSE 0 END) AS relevance", pattern, pattern).
			Order("relevance DESC")
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&recipes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, total, nil
}

func (r *recipeRepository) Popular(ctx context.Context, limit int) ([]*models.Recipe, error) {
	var recipes []*models.Recipe
	if err := r.db.WithContext(ctx).
		Order("view_count DESC").
		Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to get popular recipes: %w", err)
	}
	return recipes, nil
}

// attachIngredients resolves each pair against the catalog and inserts
// the pivot rows for a freshly created recipe.
func attachIngredients(tx *gorm.DB, recipeID uuid.UUID, pairs []models.IngredientPair) error {
	seen := make(map[uuid.UUID]bool, len(pairs))
	for _, pair := range pairs {
		ingredient, err := resolveIngredient(tx, pair.Name)
		if err != nil {
			return err
		}
		if seen[ingredient.ID] {
			continue
		}
		seen[ingredient.ID] = true

		assoc := models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: ingredient.ID,
			Measurement:  pair.Measurement,
		}
		if err := tx.Create(&assoc).Error; err != nil {
			return fmt.Errorf("failed to attach ingredient %s: %w", pair.Name, err)
		}
	}
	return nil
}

// resolveIngredient is an atomic insert-if-absent keyed by name. The
// unique index on name plus ON CONFLICT DO NOTHING means two concurrent
// resolvers of the same new name both end up with the single catalog row.
func resolveIngredient(tx *gorm.DB, name string) (*models.Ingredient, error) {
	ingredient := models.Ingredient{Name: name}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&ingredient).Error; err != nil {
		return nil, fmt.Errorf("failed to insert ingredient %s: %w", name, err)
	}

	// Conflict path: the insert touched nothing, fetch the existing row.
	if ingredient.ID == uuid.Nil {
		if err := tx.Where("name = ?", name).First(&ingredient).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch ingredient %s: %w", name, err)
		}
	}
	return &ingredient, nil
}

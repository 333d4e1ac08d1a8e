package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/recipe-hub/recipe-hub/internal/models"
)

type LikeRepository interface {
	Insert(ctx context.Context, like *models.Like) (bool, error)
	DeletePair(ctx context.Context, userID, recipeID uuid.UUID) error
	GetPair(ctx context.Context, userID, recipeID uuid.UUID) (*models.Like, error)
	CountByRecipe(ctx context.Context, recipeID uuid.UUID) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Insert adds the like unless the (user, recipe) pair already exists.
// The unique index arbitrates concurrent inserts; the loser sees false.
func (r *likeRepository) Insert(ctx context.Context, like *models.Like) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
		DoNothing: true,
	}).Create(like)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert like: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) DeletePair(ctx context.Context, userID, recipeID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.Like{}).Error; err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

func (r *likeRepository) GetPair(ctx context.Context, userID, recipeID uuid.UUID) (*models.Like, error) {
	var like models.Like
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		First(&like).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get like: %w", err)
	}
	return &like, nil
}

func (r *likeRepository) CountByRecipe(ctx context.Context, recipeID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("recipe_id = ?", recipeID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

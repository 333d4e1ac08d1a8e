package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/recipe-hub/recipe-hub/internal/models"
	"github.com/recipe-hub/recipe-hub/internal/repository"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

const (
	LikeStateLiked   = "liked"
	LikeStateUnliked = "unliked"
)

type ToggleResult struct {
	State string       `json:"state"`
	Like  *models.Like `json:"like,omitempty"`
}

type LikeService interface {
	Toggle(ctx context.Context, userID, recipeID string) (*ToggleResult, error)
}

type likeService struct {
	likeRepo   repository.LikeRepository
	recipeRepo repository.RecipeRepository
	cache      Cache
	logger     *logger.Logger
}

func NewLikeService(likeRepo repository.LikeRepository, recipeRepo repository.RecipeRepository, cache Cache, logger *logger.Logger) LikeService {
	return &likeService{
		likeRepo:   likeRepo,
		recipeRepo: recipeRepo,
		cache:      cache,
		logger:     logger,
	}
}

// Toggle flips like state for the (user, recipe) pair. The insert is an
// upsert that backs off on the unique index, so two racing toggles from
// the same user cannot produce two rows; the loser observes the conflict
// and removes instead.
func (s *likeService) Toggle(ctx context.Context, userID, recipeID string) (*ToggleResult, error) {
	uid, rid, err := parseUserAndRecipe(userID, recipeID)
	if err != nil {
		return nil, err
	}

	recipe, err := s.recipeRepo.GetByID(ctx, rid)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, fmt.Errorf("%w: recipe", ErrNotFound)
	}

	like := &models.Like{UserID: uid, RecipeID: rid}
	inserted, err := s.likeRepo.Insert(ctx, like)
	if err != nil {
		return nil, err
	}

	s.dropCountCache(ctx, rid)

	if inserted {
		s.logger.WithFields(map[string]interface{}{
			"user_id":   uid,
			"recipe_id": rid,
		}).Info("Recipe liked")
		return &ToggleResult{State: LikeStateLiked, Like: like}, nil
	}

	if err := s.likeRepo.DeletePair(ctx, uid, rid); err != nil {
		return nil, err
	}
	s.logger.WithFields(map[string]interface{}{
		"user_id":   uid,
		"recipe_id": rid,
	}).Info("Recipe unliked")
	return &ToggleResult{State: LikeStateUnliked}, nil
}

// dropCountCache invalidates the cached aggregate so the next read
// recomputes it. Failure only means staleness until the TTL expires.
func (s *likeService) dropCountCache(ctx context.Context, recipeID uuid.UUID) {
	if err := s.cache.Delete(ctx, likesCountKey(recipeID)); err != nil {
		s.logger.WithError(err).Warn("Failed to drop likes count cache")
	}
}

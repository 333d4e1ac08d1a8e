package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/recipe-hub/recipe-hub/internal/config"
	"github.com/recipe-hub/recipe-hub/internal/models"
	"github.com/recipe-hub/recipe-hub/internal/repository"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

const popularRecipesKey = "recipes:popular"

type RecipeService interface {
	Create(ctx context.Context, userID string, req *CreateRecipeRequest) (*RecipeResponse, error)
	Update(ctx context.Context, userID, recipeID string, req *UpdateRecipeRequest) (*RecipeResponse, error)
	Clone(ctx context.Context, userID, recipeID string) (*RecipeResponse, error)
	Destroy(ctx context.Context, userID string, isAdmin bool, recipeID string) (*RecipeResponse, error)
	GetDetail(ctx context.Context, recipeID string) (*RecipeResponse, error)
	List(ctx context.Context, search string, page, perPage int) ([]*RecipeResponse, PageMeta, error)
	Popular(ctx context.Context) ([]*RecipeResponse, error)
	UpdatePhoto(ctx context.Context, userID, recipeID string, photo *PhotoUpload) (*RecipeResponse, error)
	DeletePhoto(ctx context.Context, userID, recipeID string) (*RecipeResponse, error)
}

type recipeService struct {
	recipeRepo   repository.RecipeRepository
	categoryRepo repository.CategoryRepository
	likeRepo     repository.LikeRepository
	commentRepo  repository.CommentRepository
	cache        Cache
	photos       PhotoStore
	validate     *validator.Validate
	cacheCfg     *config.CacheConfig
	logger       *logger.Logger
}

func NewRecipeService(
	recipeRepo repository.RecipeRepository,
	categoryRepo repository.CategoryRepository,
	likeRepo repository.LikeRepository,
	commentRepo repository.CommentRepository,
	cache Cache,
	photos PhotoStore,
	validate *validator.Validate,
	cacheCfg *config.CacheConfig,
	logger *logger.Logger,
) RecipeService {
	return &recipeService{
		recipeRepo:   recipeRepo,
		categoryRepo: categoryRepo,
		likeRepo:     likeRepo,
		commentRepo:  commentRepo,
		cache:        cache,
		photos:       photos,
		validate:     validate,
		cacheCfg:     cacheCfg,
		logger:       logger,
	}
}

type CreateRecipeRequest struct {
	Title        string                  `json:"title" validate:"required,max=255"`
	Description  string                  `json:"description" validate:"required"`
	CookingTime  int                     `json:"cooking_time" validate:"omitempty,min=1"`
	CategoryID   string                  `json:"category_id" validate:"omitempty,uuid"`
	Instructions json.RawMessage         `json:"instructions" validate:"-"`
	Ingredients  []models.IngredientPair `json:"ingredients" validate:"required,min=1,dive"`
	Photo        *PhotoUpload            `json:"-" validate:"-"`
}

type UpdateRecipeRequest struct {
	Title        string                  `json:"title" validate:"required,max=255"`
	Description  string                  `json:"description" validate:"required"`
	CookingTime  int                     `json:"cooking_time" validate:"omitempty,min=1"`
	CategoryID   string                  `json:"category_id" validate:"omitempty,uuid"`
	Instructions json.RawMessage         `json:"instructions" validate:"-"`
	Ingredients  []models.IngredientPair `json:"ingredients" validate:"required,min=1,dive"`
}

type IngredientResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Measurement string    `json:"measurement"`
}

type RecipeResponse struct {
	ID            uuid.UUID            `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	PhotoURL      string               `json:"photo_url"`
	ViewCount     int64                `json:"view_count"`
	CookingTime   int                  `json:"cooking_time"`
	Instructions  json.RawMessage      `json:"instructions"`
	User          *UserResponse        `json:"user,omitempty"`
	Category      *models.Category     `json:"category,omitempty"`
	Ingredients   []IngredientResponse `json:"ingredients"`
	LikesCount    int64                `json:"likes_count"`
	CommentsCount int64                `json:"comments_count"`
	Comments      []models.Comment     `json:"comments,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func (s *recipeService) Create(ctx context.Context, userID string, req *CreateRecipeRequest) (*RecipeResponse, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", ErrValidation)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, newValidationError(err)
	}

	categoryID, err := s.resolveCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		Title:        req.Title,
		Description:  req.Description,
		CookingTime:  req.CookingTime,
		UserID:       ownerID,
		CategoryID:   categoryID,
		Instructions: req.Instructions,
	}

	if err := s.recipeRepo.CreateWithIngredients(ctx, recipe, req.Ingredients); err != nil {
		return nil, err
	}

	// Photo upload happens after the row exists so the object key can
	// carry the recipe id; upload failure never unwinds the recipe.
	if req.Photo != nil {
		key := photoKey("photos/recipes", recipe.ID, req.Photo.ContentType)
		if url, err := s.photos.Upload(ctx, key, req.Photo.Reader, req.Photo.ContentType); err != nil {
			s.logger.WithError(err).Error("Failed to upload recipe photo")
		} else if err := s.recipeRepo.UpdatePhotoURL(ctx, recipe.ID, url); err != nil {
			s.logger.WithError(err).Error("Failed to persist recipe photo url")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"recipe_id": recipe.ID,
		"user_id":   ownerID,
	}).Info("Recipe created successfully")
	return s.materialize(ctx, recipe.ID)
}

func (s *recipeService) Update(ctx context.Context, userID, recipeID string, req *UpdateRecipeRequest) (*RecipeResponse, error) {
	ownerID, id, err := parseUserAndRecipe(userID, recipeID)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, newValidationError(err)
	}

	// Ownership gate: somebody else's recipe is indistinguishable from
	// a missing one.
	recipe, err := s.recipeRepo.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, fmt.Errorf("%w: recipe", ErrNotFound)
	}

	categoryID, err := s.resolveCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	recipe.Title = req.Title
	recipe.Description = req.Description
	recipe.CookingTime = req.CookingTime
	recipe.CategoryID = categoryID
	recipe.Instructions = req.Instructions
	recipe.Ingredients = nil

	if err := s.recipeRepo.UpdateWithIngredients(ctx, recipe, req.Ingredients); err != nil {
		return nil, err
	}
	return s.materialize(ctx, recipe.ID)
}

// Clone copies any recipe, regardless of owner, into the caller's
// collection. Ingredient ids are already canonical so the pivot rows are
// copied verbatim.
func (s *recipeService) Clone(ctx context.Context, userID, recipeID string) (*RecipeResponse, error) {
	ownerID, id, err := parseUserAndRecipe(userID, recipeID)
	if err != nil {
		return nil, err
	}

	source, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: recipe", ErrNotFound)
	}

	clone, err := s.recipeRepo.Clone(ctx, source, ownerID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"source_id": source.ID,
		"clone_id":  clone.ID,
		"user_id":   ownerID,
	}).Info("Recipe cloned")
	return s.materialize(ctx, clone.ID)
}

// Destroy deletes only when the caller owns the recipe or is an admin.
// Anyone else gets the recipe back untouched with a 200; the row stays.
func (s *recipeService) Destroy(ctx context.Context, userID string, isAdmin bool, recipeID string) (*RecipeResponse, error) {
	ownerID, id, err := parseUserAndRecipe(userID, recipeID)
	if err != nil {
		return nil, err
	}

	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, fmt.Errorf("%w: recipe", ErrNotFound)
	}

	response, err := s.materialize(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}

	if recipe.UserID == ownerID || isAdmin {
		if err := s.recipeRepo.Delete(ctx, id); err != nil {
			return nil, err
		}
		if err := s.cache.Delete(ctx, likesCountKey(id), commentsCountKey(id)); err != nil {
			s.logger.WithError(err).Warn("Failed to drop recipe count caches")
		}
		s.logger.WithFields(map[string]interface{}{
			"recipe_id": id,
			"user_id":   ownerID,
		}).Info("Recipe deleted")
	}
	return response, nil
}

func (s *recipeService) GetDetail(ctx context.Context, recipeID string) (*RecipeResponse, error) {
	id, err := uuid.Parse(recipeID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid recipe id", ErrValidation)
	}

	recipe, err := s.recipeRepo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, fmt.Errorf("%w: recipe", ErrNotFound)
	}

	// Every detail fetch counts as a view; the increment is atomic at
	// the storage layer.
	if err := s.recipeRepo.IncrementViewCount(ctx, id); err != nil {
		s.logger.WithError(err).Error("Failed to increment view count")
	} else {
		recipe.ViewCount++
	}

	return s.buildResponse(ctx, recipe, true), nil
}

func (s *recipeService) List(ctx context.Context, search string, page, perPage int) ([]*RecipeResponse, PageMeta, error) {
	page, perPage, offset := normalizePage(page, perPage)

	recipes, total, err := s.recipeRepo.List(ctx, search, offset, perPage)
	if err != nil {
		return nil, PageMeta{}, err
	}

	responses := make([]*RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		responses = append(responses, s.buildResponse(ctx, recipe, false))
	}
	return responses, PageMeta{Page: page, PerPage: perPage, Total: total}, nil
}

func (s *recipeService) Popular(ctx context.Context) ([]*RecipeResponse, error) {
	var cached []*RecipeResponse
	if err := s.cache.GetJSON(ctx, popularRecipesKey, &cached); err == nil {
		return cached, nil
	}

	recipes, err := s.recipeRepo.Popular(ctx, 10)
	if err != nil {
		return nil, err
	}

	responses := make([]*RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		responses = append(responses, s.buildResponse(ctx, recipe, false))
	}

	if err := s.cache.SetJSON(ctx, popularRecipesKey, responses, s.cacheCfg.PopularTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to cache popular recipes")
	}
	return responses, nil
}

func (s *recipeService) UpdatePhoto(ctx context.Context, userID, recipeID string, photo *PhotoUpload) (*RecipeResponse, error) {
	ownerID, id, err := parseUserAndRecipe(userID, recipeID)
	if err != nil {
		return nil, err
	}

	recipe, err := s.recipeRepo.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, fmt.Errorf("%w: recipe", ErrNotFound)
	}

	if recipe.PhotoURL != "" {
		if key := s.photos.KeyFromURL(recipe.PhotoURL); key != "" {
			if err := s.photos.Delete(ctx, key); err != nil {
				s.logger.WithError(err).Error("Failed to delete previous recipe photo")
			}
		}
	}

	key := photoKey("photos/recipes", recipe.ID, photo.ContentType)
	url, err := s.photos.Upload(ctx, key, photo.Reader, photo.ContentType)
	if err != nil {
		return nil, err
	}

	if err := s.recipeRepo.UpdatePhotoURL(ctx, recipe.ID, url); err != nil {
		return nil, err
	}
	return s.materialize(ctx, recipe.ID)
}

func (s *recipeService) DeletePhoto(ctx context.Context, userID, recipeID string) (*RecipeResponse, error) {
	ownerID, id, err := parseUserAndRecipe(userID, recipeID)
	if err != nil {
		return nil, err
	}

	recipe, err := s.recipeRepo.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, fmt.Errorf("%w: recipe", ErrNotFound)
	}

	if recipe.PhotoURL != "" {
		if key := s.photos.KeyFromURL(recipe.PhotoURL); key != "" {
			if err := s.photos.Delete(ctx, key); err != nil {
				s.logger.WithError(err).Error("Failed to delete recipe photo object")
			}
		}
	}

	if err := s.recipeRepo.UpdatePhotoURL(ctx, recipe.ID, ""); err != nil {
		return nil, err
	}
	return s.materialize(ctx, recipe.ID)
}

func (s *recipeService) resolveCategory(ctx context.Context, categoryID string) (*uuid.UUID, error) {
	if categoryID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(categoryID)
	if err != nil {
		return nil, fieldValidationError("category_id", "must be a valid uuid")
	}
	exists, err := s.categoryRepo.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fieldValidationError("category_id", "category does not exist")
	}
	return &id, nil
}

// materialize reloads the recipe with its relations for the response.
func (s *recipeService) materialize(ctx context.Context, id uuid.UUID) (*RecipeResponse, error) {
	recipe, err := s.recipeRepo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, fmt.Errorf("%w: recipe", ErrNotFound)
	}
	return s.buildResponse(ctx, recipe, false), nil
}

func (s *recipeService) buildResponse(ctx context.Context, recipe *models.Recipe, withComments bool) *RecipeResponse {
	ingredients := make([]IngredientResponse, 0, len(recipe.Ingredients))
	for _, assoc := range recipe.Ingredients {
		ingredients = append(ingredients, IngredientResponse{
			ID:          assoc.IngredientID,
			Name:        assoc.Ingredient.Name,
			Measurement: assoc.Measurement,
		})
	}

	response := &RecipeResponse{
		ID:            recipe.ID,
		Title:         recipe.Title,
		Description:   recipe.Description,
		PhotoURL:      recipe.PhotoURL,
		ViewCount:     recipe.ViewCount,
		CookingTime:   recipe.CookingTime,
		Instructions:  recipe.Instructions,
		Category:      recipe.Category,
		Ingredients:   ingredients,
		LikesCount:    s.likesCount(ctx, recipe.ID),
		CommentsCount: s.commentsCount(ctx, recipe.ID),
		CreatedAt:     recipe.CreatedAt,
		UpdatedAt:     recipe.UpdatedAt,
	}
	if recipe.User.ID != uuid.Nil {
		response.User = NewUserResponse(&recipe.User)
	}
	if withComments {
		response.Comments = recipe.Comments
	}
	return response
}

// likesCount is a cache-aside aggregate; staleness up to the TTL is an
// accepted tradeoff.
func (s *recipeService) likesCount(ctx context.Context, recipeID uuid.UUID) int64 {
	key := likesCountKey(recipeID)
	if count, err := s.cache.GetInt64(ctx, key); err == nil {
		return count
	}

	count, err := s.likeRepo.CountByRecipe(ctx, recipeID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count likes")
		return 0
	}
	if err := s.cache.Set(ctx, key, count, s.cacheCfg.CountTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to cache likes count")
	}
	return count
}

func (s *recipeService) commentsCount(ctx context.Context, recipeID uuid.UUID) int64 {
	key := commentsCountKey(recipeID)
	if count, err := s.cache.GetInt64(ctx, key); err == nil {
		return count
	}

	count, err := s.commentRepo.CountByRecipe(ctx, recipeID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count comments")
		return 0
	}
	if err := s.cache.Set(ctx, key, count, s.cacheCfg.CountTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to cache comments count")
	}
	return count
}

func likesCountKey(recipeID uuid.UUID) string {
	return fmt.Sprintf("recipe:%s:likes_count", recipeID)
}

func commentsCountKey(recipeID uuid.UUID) string {
	return fmt.Sprintf("recipe:%s:comments_count", recipeID)
}

func parseUserAndRecipe(userID, recipeID string) (uuid.UUID, uuid.UUID, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: invalid user id", ErrValidation)
	}
	rid, err := uuid.Parse(recipeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: invalid recipe id", ErrValidation)
	}
	return uid, rid, nil
}

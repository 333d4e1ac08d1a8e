package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/recipe-hub/recipe-hub/internal/config"
	"github.com/recipe-hub/recipe-hub/internal/models"
	"github.com/recipe-hub/recipe-hub/internal/repository"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

type CategoryService interface {
	Create(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error)
	Get(ctx context.Context, categoryID string) (*models.Category, error)
	List(ctx context.Context, search string, page, perPage int) ([]*models.Category, PageMeta, error)
	Delete(ctx context.Context, categoryID string) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	cache        Cache
	validate     *validator.Validate
	cacheCfg     *config.CacheConfig
	logger       *logger.Logger
}

func NewCategoryService(categoryRepo repository.CategoryRepository, cache Cache, validate *validator.Validate, cacheCfg *config.CacheConfig, logger *logger.Logger) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		cache:        cache,
		validate:     validate,
		cacheCfg:     cacheCfg,
		logger:       logger,
	}
}

const categoryPagePrefix = "categories:page:"

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type categoryPage struct {
	Categories []*models.Category `json:"categories"`
	Total      int64              `json:"total"`
}

func (s *categoryService) Create(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, newValidationError(err)
	}

	category := &models.Category{Name: req.Name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.dropPageCache(ctx)
	s.logger.WithField("category_id", category.ID).Info("Category created")
	return category, nil
}

func (s *categoryService) Get(ctx context.Context, categoryID string) (*models.Category, error) {
	id, err := uuid.Parse(categoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid category id", ErrValidation)
	}

	key := categoryKey(id)
	var cached models.Category
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, fmt.Errorf("%w: category", ErrNotFound)
	}

	if err := s.cache.SetJSON(ctx, key, category, s.cacheCfg.CategoryTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to cache category")
	}
	return category, nil
}

// List serves category pages from cache; categories change rarely so the
// long TTL is acceptable.
func (s *categoryService) List(ctx context.Context, search string, page, perPage int) ([]*models.Category, PageMeta, error) {
	page, perPage, offset := normalizePage(page, perPage)

	key := fmt.Sprintf("%s%d:per:%d:search:%s", categoryPagePrefix, page, perPage, search)
	var cached categoryPage
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached.Categories, PageMeta{Page: page, PerPage: perPage, Total: cached.Total}, nil
	}

	categories, total, err := s.categoryRepo.List(ctx, search, offset, perPage)
	if err != nil {
		return nil, PageMeta{}, err
	}

	if err := s.cache.SetJSON(ctx, key, categoryPage{Categories: categories, Total: total}, s.cacheCfg.CategoryTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to cache category page")
	}
	return categories, PageMeta{Page: page, PerPage: perPage, Total: total}, nil
}

func (s *categoryService) Delete(ctx context.Context, categoryID string) error {
	id, err := uuid.Parse(categoryID)
	if err != nil {
		return fmt.Errorf("%w: invalid category id", ErrValidation)
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: category", ErrNotFound)
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, categoryKey(id)); err != nil {
		s.logger.WithError(err).Warn("Failed to drop category cache")
	}
	s.dropPageCache(ctx)
	s.logger.WithField("category_id", id).Info("Category deleted")
	return nil
}

// dropPageCache clears every cached category page so writes show up
// before the TTL would expire them.
func (s *categoryService) dropPageCache(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, categoryPagePrefix+"*"); err != nil {
		s.logger.WithError(err).Warn("Failed to drop category page cache")
	}
}

func categoryKey(id uuid.UUID) string {
	return fmt.Sprintf("category:%s", id)
}

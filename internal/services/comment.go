package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/recipe-hub/recipe-hub/internal/models"
	"github.com/recipe-hub/recipe-hub/internal/repository"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
	"github.com/recipe-hub/recipe-hub/pkg/queue"
)

type CommentService interface {
	// Request validates and enqueues; the row is written by HandleJob.
	Request(ctx context.Context, userID string, req *CreateCommentRequest) error
	HandleJob(ctx context.Context, job *queue.CommentJobData) error
	List(ctx context.Context, recipeID string, page, perPage int) ([]*models.Comment, PageMeta, error)
	Get(ctx context.Context, commentID string) (*models.Comment, error)
	Delete(ctx context.Context, userID, commentID string) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	recipeRepo  repository.RecipeRepository
	jobs        Producer
	events      Producer
	cache       Cache
	validate    *validator.Validate
	logger      *logger.Logger
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	recipeRepo repository.RecipeRepository,
	jobs Producer,
	events Producer,
	cache Cache,
	validate *validator.Validate,
	logger *logger.Logger,
) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		recipeRepo:  recipeRepo,
		jobs:        jobs,
		events:      events,
		cache:       cache,
		validate:    validate,
		logger:      logger,
	}
}

type CreateCommentRequest struct {
	RecipeID string `json:"recipe_id" validate:"required,uuid"`
	Message  string `json:"message" validate:"required"`
}

// Request performs all caller-facing checks synchronously, then hands the
// payload to the job queue. The caller gets its ack before any row exists,
// so a read immediately after may legitimately miss the comment.
func (s *commentService) Request(ctx context.Context, userID string, req *CreateCommentRequest) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("%w: invalid user id", ErrValidation)
	}
	if err := s.validate.Struct(req); err != nil {
		return newValidationError(err)
	}

	rid, err := uuid.Parse(req.RecipeID)
	if err != nil {
		return fieldValidationError("recipe_id", "must be a valid uuid")
	}
	recipe, err := s.recipeRepo.GetByID(ctx, rid)
	if err != nil {
		return err
	}
	if recipe == nil {
		return fieldValidationError("recipe_id", "recipe does not exist")
	}

	event, err := queue.NewEvent(queue.EventCommentRequested, queue.CommentJobData{
		RecipeID: rid.String(),
		UserID:   uid.String(),
		Message:  req.Message,
	})
	if err != nil {
		return err
	}
	if err := s.jobs.Publish(ctx, rid.String(), event); err != nil {
		return fmt.Errorf("failed to enqueue comment: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"recipe_id": rid,
		"user_id":   uid,
	}).Info("Comment queued")
	return nil
}

// HandleJob persists the queued comment and broadcasts the creation event.
// The broadcast happens only after the row is committed, so subscribers
// never see an id that cannot be fetched.
func (s *commentService) HandleJob(ctx context.Context, job *queue.CommentJobData) error {
	rid, err := uuid.Parse(job.RecipeID)
	if err != nil {
		return fmt.Errorf("invalid recipe id in job: %w", err)
	}
	uid, err := uuid.Parse(job.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id in job: %w", err)
	}

	comment := &models.Comment{
		RecipeID: rid,
		UserID:   uid,
		Message:  job.Message,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return fmt.Errorf("failed to persist comment: %w", err)
	}

	if err := s.cache.Delete(ctx, commentsCountKey(rid)); err != nil {
		s.logger.WithError(err).Warn("Failed to drop comments count cache")
	}

	event, err := queue.NewEvent(queue.EventCommentCreated, queue.CommentEventData{
		CommentID: comment.ID.String(),
		RecipeID:  rid.String(),
		UserID:    uid.String(),
		Message:   comment.Message,
		CreatedAt: comment.CreatedAt,
	})
	if err != nil {
		return err
	}
	if err := s.events.Publish(ctx, rid.String(), event); err != nil {
		// The comment is durable; the broadcast is best effort.
		s.logger.WithError(err).Error("Failed to broadcast comment event")
	}

	s.logger.WithFields(map[string]interface{}{
		"comment_id": comment.ID,
		"recipe_id":  rid,
	}).Info("Comment persisted")
	return nil
}

func (s *commentService) List(ctx context.Context, recipeID string, page, perPage int) ([]*models.Comment, PageMeta, error) {
	rid, err := uuid.Parse(recipeID)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("%w: invalid recipe id", ErrValidation)
	}
	page, perPage, offset := normalizePage(page, perPage)

	comments, total, err := s.commentRepo.ListByRecipe(ctx, rid, offset, perPage)
	if err != nil {
		return nil, PageMeta{}, err
	}
	return comments, PageMeta{Page: page, PerPage: perPage, Total: total}, nil
}

func (s *commentService) Get(ctx context.Context, commentID string) (*models.Comment, error) {
	id, err := uuid.Parse(commentID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid comment id", ErrValidation)
	}

	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, fmt.Errorf("%w: comment", ErrNotFound)
	}
	return comment, nil
}

// Delete removes the caller's own comment. Anyone else's comment,
// admin or not, reads as missing.
func (s *commentService) Delete(ctx context.Context, userID, commentID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("%w: invalid user id", ErrValidation)
	}
	id, err := uuid.Parse(commentID)
	if err != nil {
		return fmt.Errorf("%w: invalid comment id", ErrValidation)
	}

	comment, err := s.commentRepo.GetOwned(ctx, id, uid)
	if err != nil {
		return err
	}
	if comment == nil {
		return fmt.Errorf("%w: comment", ErrNotFound)
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, commentsCountKey(comment.RecipeID)); err != nil {
		s.logger.WithError(err).Warn("Failed to drop comments count cache")
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/recipe-hub/recipe-hub/internal/models"
	"github.com/recipe-hub/recipe-hub/internal/repository"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error)
	GetByID(ctx context.Context, userID string) (*UserResponse, error)
	Me(ctx context.Context, userID string) (*UserResponse, error)
	UpdateMe(ctx context.Context, userID string, req *UpdateUserRequest) (*UserResponse, error)
	DeactivateMe(ctx context.Context, userID string) (*UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) (*UserResponse, error)
	UpdateStatus(ctx context.Context, userID, status string) (*UserResponse, error)
	List(ctx context.Context, page, perPage int) ([]*UserResponse, PageMeta, error)
	UpdatePhoto(ctx context.Context, userID string, photo *PhotoUpload) (*UserResponse, error)
	DeletePhoto(ctx context.Context, userID string) (*UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	photos   PhotoStore
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserService(userRepo repository.UserRepository, photos PhotoStore, validate *validator.Validate, logger *logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		photos:   photos,
		validate: validate,
		logger:   logger,
	}
}

type RegisterRequest struct {
	FirstName string       `json:"first_name" validate:"required,max=100"`
	LastName  string       `json:"last_name" validate:"required,max=100"`
	Email     string       `json:"email" validate:"required,email"`
	Password  string       `json:"password" validate:"required,min=6,max=72"`
	Photo     *PhotoUpload `json:"-" validate:"-"`
}

type UpdateUserRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
}

type ChangePasswordRequest struct {
	PreviousPassword string `json:"previous_password" validate:"required"`
	Password         string `json:"password" validate:"required,min=6,max=72"`
}

type UserResponse struct {
	ID        uuid.UUID         `json:"id"`
	FullName  string            `json:"full_name"`
	Email     string            `json:"email"`
	PhotoURL  string            `json:"photo_url"`
	Role      string            `json:"role"`
	Status    models.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Recipes   []models.Recipe   `json:"recipes,omitempty"`
	Likes     []models.Like     `json:"likes,omitempty"`
}

func NewUserResponse(user *models.User) *UserResponse {
	role := "user"
	if user.IsAdmin {
		role = "admin"
	}
	return &UserResponse{
		ID:        user.ID,
		FullName:  user.FullName(),
		Email:     user.Email,
		PhotoURL:  user.PhotoURL,
		Role:      role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		Recipes:   user.Recipes,
		Likes:     user.Likes,
	}
}

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, newValidationError(err)
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already taken", ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  string(hashed),
		Status:    models.UserStatusActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// The photo goes out after the row exists so the key can be
	// namespaced by the user id; a failed upload is logged, not fatal.
	if req.Photo != nil {
		if url, err := s.storePhoto(ctx, "photos/users", user.ID, req.Photo); err != nil {
			s.logger.WithError(err).Error("Failed to upload user photo")
		} else {
			user.PhotoURL = url
			if err := s.userRepo.Update(ctx, user); err != nil {
				s.logger.WithError(err).Error("Failed to persist user photo url")
			}
		}
	}

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return NewUserResponse(user), nil
}

func (s *userService) GetByID(ctx context.Context, userID string) (*UserResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", ErrValidation)
	}

	user, err := s.userRepo.GetWithRelations(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	return NewUserResponse(user), nil
}

func (s *userService) Me(ctx context.Context, userID string) (*UserResponse, error) {
	return s.GetByID(ctx, userID)
}

func (s *userService) UpdateMe(ctx context.Context, userID string, req *UpdateUserRequest) (*UserResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, newValidationError(err)
	}

	user, err := s.mustGetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != user.Email {
		existing, err := s.userRepo.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: email already taken", ErrConflict)
		}
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Email = req.Email

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return NewUserResponse(user), nil
}

// DeactivateMe is the self-service account removal: the status moves to
// deleted and never back.
func (s *userService) DeactivateMe(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.mustGetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Status = models.UserStatusDeleted
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User deactivated own account")
	return NewUserResponse(user), nil
}

func (s *userService) ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) (*UserResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, newValidationError(err)
	}

	user, err := s.mustGetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.PreviousPassword)); err != nil {
		return nil, fieldValidationError("previous_password", "The previous password is incorrect.")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user.Password = string(hashed)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return NewUserResponse(user), nil
}

// UpdateStatus is the admin moderation path. Admin accounts cannot be
// targeted; they surface as not found.
func (s *userService) UpdateStatus(ctx context.Context, userID, status string) (*UserResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", ErrValidation)
	}

	newStatus := models.UserStatus(status)
	switch newStatus {
	case models.UserStatusActive, models.UserStatusBlocked, models.UserStatusDeleted:
	default:
		return nil, fieldValidationError("status", "status must be one of active, blocked, deleted")
	}

	user, err := s.userRepo.UpdateStatus(ctx, id, newStatus)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"status":  newStatus,
	}).Info("User status updated")
	return NewUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, page, perPage int) ([]*UserResponse, PageMeta, error) {
	page, perPage, offset := normalizePage(page, perPage)

	users, total, err := s.userRepo.List(ctx, offset, perPage)
	if err != nil {
		return nil, PageMeta{}, err
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}
	return responses, PageMeta{Page: page, PerPage: perPage, Total: total}, nil
}

func (s *userService) UpdatePhoto(ctx context.Context, userID string, photo *PhotoUpload) (*UserResponse, error) {
	user, err := s.mustGetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.PhotoURL != "" {
		if key := s.photos.KeyFromURL(user.PhotoURL); key != "" {
			if err := s.photos.Delete(ctx, key); err != nil {
				s.logger.WithError(err).Error("Failed to delete previous user photo")
			}
		}
	}

	url, err := s.storePhoto(ctx, "photos/users", user.ID, photo)
	if err != nil {
		return nil, err
	}

	user.PhotoURL = url
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return NewUserResponse(user), nil
}

func (s *userService) DeletePhoto(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.mustGetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.PhotoURL != "" {
		if key := s.photos.KeyFromURL(user.PhotoURL); key != "" {
			if err := s.photos.Delete(ctx, key); err != nil {
				s.logger.WithError(err).Error("Failed to delete user photo object")
			}
		}
	}

	user.PhotoURL = ""
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return NewUserResponse(user), nil
}

func (s *userService) mustGetUser(ctx context.Context, userID string) (*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", ErrValidation)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	return user, nil
}

func (s *userService) storePhoto(ctx context.Context, prefix string, ownerID uuid.UUID, photo *PhotoUpload) (string, error) {
	key := photoKey(prefix, ownerID, photo.ContentType)
	return s.photos.Upload(ctx, key, photo.Reader, photo.ContentType)
}

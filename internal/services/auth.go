package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/recipe-hub/recipe-hub/internal/models"
	"github.com/recipe-hub/recipe-hub/internal/repository"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

const denylistPrefix = "auth:denylist:"

type AuthService interface {
	// Login verifies credentials for an active account. Wrong email,
	// wrong password and blocked or deleted accounts all return the
	// same ErrUnauthorized so callers cannot tell which one it was.
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type authService struct {
	userRepo repository.UserRepository
	cache    Cache
	logger   *logger.Logger
}

func NewAuthService(userRepo repository.UserRepository, cache Cache, logger *logger.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		cache:    cache,
		logger:   logger,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive() {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in")
	return user, nil
}

// Logout denylists the token id for the remainder of its lifetime. Once
// the token would have expired anyway the key is allowed to lapse.
func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, denylistPrefix+jti, "1", ttl); err != nil {
		return fmt.Errorf("failed to denylist token: %w", err)
	}
	return nil
}

func (s *authService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.cache.Exists(ctx, denylistPrefix+jti)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

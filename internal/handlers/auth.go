package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recipe-hub/recipe-hub/internal/config"
	"github.com/recipe-hub/recipe-hub/internal/middleware"
	"github.com/recipe-hub/recipe-hub/internal/services"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

type AuthHandler struct {
	authService services.AuthService
	jwtCfg      *config.JWTConfig
	logger      *logger.Logger
}

func NewAuthHandler(authService services.AuthService, jwtCfg *config.JWTConfig, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtCfg:      jwtCfg,
		logger:      logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	token, err := middleware.GenerateToken(user.ID.String(), user.Email, user.IsAdmin, h.jwtCfg.Secret, h.jwtCfg.ExpireTime)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int64(h.jwtCfg.ExpireTime.Seconds()),
		"user":       services.NewUserResponse(user),
	})
}

// Refresh denylists the presented token and issues a fresh one. The old
// token stops working immediately.
func (h *AuthHandler) Refresh(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		respondError(c, h.logger, err)
		return
	}

	token, err := middleware.GenerateToken(claims.Subject, claims.Email, claims.IsAdmin, h.jwtCfg.Secret, h.jwtCfg.ExpireTime)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int64(h.jwtCfg.ExpireTime.Seconds()),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recipe-hub/recipe-hub/internal/middleware"
	"github.com/recipe-hub/recipe-hub/internal/services"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

type UserHandler struct {
	userService services.UserService
	authService services.AuthService
	logger      *logger.Logger
}

func NewUserHandler(userService services.UserService, authService services.AuthService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
		logger:      logger,
	}
}

type registerForm struct {
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Email     string `form:"email" json:"email"`
	Password  string `form:"password" json:"password"`
}

// Register accepts JSON or multipart; the multipart form may carry an
// optional photo field.
func (h *UserHandler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	req := &services.RegisterRequest{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	}

	photo, closer, err := photoFromForm(c, "photo")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}
	req.Photo = photo

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.userService.UpdateMe(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeactivateMe soft-deletes the account by flipping its status; the row
// and the user's content stay. The presented token is denylisted so the
// session dies with the account.
func (h *UserHandler) DeactivateMe(c *gin.Context) {
	user, err := h.userService.DeactivateMe(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if claims := middleware.GetClaims(c); claims != nil {
		if err := h.authService.Logout(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			h.logger.WithError(err).Error("Failed to revoke token on account deactivation")
		}
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.userService.ChangePassword(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) UpdatePhoto(c *gin.Context) {
	photo, closer, err := photoFromForm(c, "photo")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if photo == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "photo field is required"})
		return
	}
	defer closer.Close()

	user, err := h.userService.UpdatePhoto(c.Request.Context(), middleware.GetUserID(c), photo)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) DeletePhoto(c *gin.Context) {
	user, err := h.userService.DeletePhoto(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)
	users, meta, err := h.userService.List(c.Request.Context(), page, perPage)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondPage(c, users, meta)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus is admin only; admin accounts themselves cannot be
// downgraded and read as missing.
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.userService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recipe-hub/recipe-hub/internal/middleware"
	"github.com/recipe-hub/recipe-hub/internal/services"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

type LikeHandler struct {
	likeService services.LikeService
	logger      *logger.Logger
}

func NewLikeHandler(likeService services.LikeService, logger *logger.Logger) *LikeHandler {
	return &LikeHandler{
		likeService: likeService,
		logger:      logger,
	}
}

func (h *LikeHandler) Toggle(c *gin.Context) {
	result, err := h.likeService.Toggle(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

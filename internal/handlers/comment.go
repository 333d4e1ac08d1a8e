package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recipe-hub/recipe-hub/internal/middleware"
	"github.com/recipe-hub/recipe-hub/internal/services"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

type CommentHandler struct {
	commentService services.CommentService
	logger         *logger.Logger
}

func NewCommentHandler(commentService services.CommentService, logger *logger.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger,
	}
}

// Create acknowledges as soon as the job is queued. The comment row is
// written asynchronously, so the response carries no id.
func (h *CommentHandler) Create(c *gin.Context) {
	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if err := h.commentService.Request(c.Request.Context(), middleware.GetUserID(c), &req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": true})
}

func (h *CommentHandler) ListByRecipe(c *gin.Context) {
	page, perPage := pageParams(c)
	comments, meta, err := h.commentService.List(c.Request.Context(), c.Param("id"), page, perPage)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondPage(c, comments, meta)
}

func (h *CommentHandler) Get(c *gin.Context) {
	comment, err := h.commentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	err := h.commentService.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

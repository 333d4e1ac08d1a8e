package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recipe-hub/recipe-hub/internal/services"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

type CategoryHandler struct {
	categoryService services.CategoryService
	logger          *logger.Logger
}

func NewCategoryHandler(categoryService services.CategoryService, logger *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.categoryService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

func (h *CategoryHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)
	categories, meta, err := h.categoryService.List(c.Request.Context(), c.Query("search"), page, perPage)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondPage(c, categories, meta)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.categoryService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

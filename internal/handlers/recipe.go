package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/recipe-hub/recipe-hub/internal/middleware"
	"github.com/recipe-hub/recipe-hub/internal/models"
	"github.com/recipe-hub/recipe-hub/internal/services"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

type RecipeHandler struct {
	recipeService services.RecipeService
	logger        *logger.Logger
}

func NewRecipeHandler(recipeService services.RecipeService, logger *logger.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		logger:        logger,
	}
}

func (h *RecipeHandler) Create(c *gin.Context) {
	req := &services.CreateRecipeRequest{}
	var photoCleanup func()
	if isMultipart(c) {
		var err error
		photoCleanup, err = h.bindMultipart(c, &req.Title, &req.Description, &req.CookingTime,
			&req.CategoryID, &req.Instructions, &req.Ingredients, &req.Photo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
	} else if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if photoCleanup != nil {
		defer photoCleanup()
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) Update(c *gin.Context) {
	req := &services.UpdateRecipeRequest{}
	if isMultipart(c) {
		if _, err := h.bindMultipart(c, &req.Title, &req.Description, &req.CookingTime,
			&req.CategoryID, &req.Instructions, &req.Ingredients, nil); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
	} else if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) Clone(c *gin.Context) {
	recipe, err := h.recipeService.Clone(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipe": recipe})
}

// Destroy responds 200 with the recipe either way; only owners and admins
// actually remove the row.
func (h *RecipeHandler) Destroy(c *gin.Context) {
	recipe, err := h.recipeService.Destroy(c.Request.Context(), middleware.GetUserID(c), middleware.IsAdmin(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) Get(c *gin.Context) {
	recipe, err := h.recipeService.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)
	recipes, meta, err := h.recipeService.List(c.Request.Context(), c.Query("search"), page, perPage)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondPage(c, recipes, meta)
}

func (h *RecipeHandler) Popular(c *gin.Context) {
	recipes, err := h.recipeService.Popular(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recipes})
}

func (h *RecipeHandler) UpdatePhoto(c *gin.Context) {
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

	recipe, err := h.recipeService.UpdatePhoto(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), photo)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) DeletePhoto(c *gin.Context) {
	recipe, err := h.recipeService.DeletePhoto(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// bindMultipart decodes the recipe form. Ingredients and instructions
// arrive as JSON-encoded strings inside the multipart body.
func (h *RecipeHandler) bindMultipart(c *gin.Context, title, description *string, cookingTime *int,
	categoryID *string, instructions *json.RawMessage, ingredients *[]models.IngredientPair,
	photo **services.PhotoUpload) (func(), error) {

	*title = c.PostForm("title")
	*description = c.PostForm("description")
	*categoryID = c.PostForm("category_id")

	if raw := c.PostForm("cooking_time"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		*cookingTime = n
	}
	if raw := c.PostForm("instructions"); raw != "" {
		*instructions = json.RawMessage(raw)
	}
	if raw := c.PostForm("ingredients"); raw != "" {
		if err := json.Unmarshal([]byte(raw), ingredients); err != nil {
			return nil, err
		}
	}

	if photo == nil {
		return nil, nil
	}
	upload, closer, err := photoFromForm(c, "photo")
	if err != nil {
		return nil, err
	}
	*photo = upload
	if closer == nil {
		return nil, nil
	}
	return func() { closer.Close() }, nil
}

package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/recipe-hub/recipe-hub/internal/services"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

const maxPhotoSize = 10 << 20

// respondError maps service sentinels onto HTTP statuses. Validation
// failures carry their per-field messages; everything unexpected is a
// plain 500 so internals never leak.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "The given data was invalid.",
			"errors":  validationErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Resource not found"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
	default:
		log.WithError(err).Error("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

func respondPage(c *gin.Context, data interface{}, meta services.PageMeta) {
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": meta,
	})
}

func pageParams(c *gin.Context) (int, int) {
	return queryInt(c, "page"), queryInt(c, "per_page")
}

func queryInt(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// photoFromForm decodes an optional multipart photo field. A missing
// field returns (nil, nil).
func photoFromForm(c *gin.Context, field string) (*services.PhotoUpload, io.Closer, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if header.Size > maxPhotoSize {
		return nil, nil, services.ErrValidation
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &services.PhotoUpload{
		Reader:      file,
		ContentType: contentTypeOf(header),
		Size:        header.Size,
	}, file, nil
}

func contentTypeOf(header *multipart.FileHeader) string {
	return header.Header.Get("Content-Type")
}

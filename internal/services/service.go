package services

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/recipe-hub/recipe-hub/pkg/storage"
)

// Cache is the slice of the redis client the services rely on;
// satisfied by *cache.RedisClient.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetInt64(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (int64, error)
}

// Producer is the queue surface used to enqueue jobs and broadcast
// events; satisfied by *queue.KafkaProducer.
type Producer interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// normalizePage clamps pagination inputs and returns the offset.
func normalizePage(page, perPage int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage, (page - 1) * perPage
}

// PhotoStore is the object-storage surface the services use for photo
// assets; satisfied by *storage.S3Storage.
type PhotoStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) string
}

// PhotoUpload is a decoded multipart photo field.
type PhotoUpload struct {
	Reader      io.Reader
	ContentType string
	Size        int64
}

// photoKey namespaces stored photos by owning entity id.
func photoKey(prefix string, ownerID uuid.UUID, contentType string) string {
	return fmt.Sprintf("%s/%s/%s%s", prefix, ownerID, uuid.New(), storage.ExtensionFor(contentType))
}

// NewValidator builds the validator used across services, reporting
// field names by their json tag.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return validate
}

package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/recipe-hub/recipe-hub/internal/config"
)

// AllowedImageTypes are the content types accepted for photo uploads.
var AllowedImageTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

type S3Storage struct {
	client *s3.Client
	cfg    *config.StorageConfig
}

func NewS3Storage(ctx context.Context, cfg *config.StorageConfig) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &S3Storage{
		client: s3.NewFromConfig(awsCfg),
		cfg:    cfg,
	}, nil
}

// Upload stores the object under key and returns its public URL.
func (s *S3Storage) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if _, ok := AllowedImageTypes[contentType]; !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.cfg.Bucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return s.cfg.ObjectURL(key), nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// KeyFromURL recovers the object key from a public URL previously
// returned by Upload. Returns "" when the URL is not ours.
func (s *S3Storage) KeyFromURL(url string) string {
	prefixes := []string{
		s.cfg.BaseURL + "/",
		fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.cfg.Bucket, s.cfg.Region),
	}
	for _, prefix := range prefixes {
		if prefix != "/" && strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}
	return ""
}

// ExtensionFor maps an uploaded content type to the stored extension.
func ExtensionFor(contentType string) string {
	return AllowedImageTypes[contentType]
}

// Package gallery manages before/after photos in S3 and promotional banners
// in Postgres.
package gallery

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store uploads gallery photos to S3. If bucket is empty, uploads are
// rejected rather than silently dropped.
type Store struct {
	bucket    string
	publicURL string
	s3Client  S3API
	logger    *logging.Logger
}

// NewStore creates a photo store. publicURL is the CDN or bucket website
// prefix photos are served from.
func NewStore(s3Client S3API, bucket, publicURL string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, publicURL: strings.TrimRight(publicURL, "/"), s3Client: s3Client, logger: logger}
}

// Enabled reports whether uploads are configured.
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadPhoto writes one photo and returns its key and public URL.
func (s *Store) UploadPhoto(ctx context.Context, category, contentType string, body io.Reader) (key, url string, err error) {
	if !s.Enabled() {
		return "", "", fmt.Errorf("gallery: photo storage is not configured")
	}
	ext, ok := allowedPhotoTypes[contentType]
	if !ok {
		return "", "", fmt.Errorf("gallery: unsupported content type %q", contentType)
	}
	if category == "" {
		category = "general"
	}

	now := time.Now().UTC()
	key = fmt.Sprintf("gallery/%s/%d/%02d/%s%s", path.Clean(category), now.Year(), now.Month(), uuid.NewString(), ext)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("gallery: s3 put %s: %w", key, err)
	}

	s.logger.Info("gallery photo uploaded", "s3_key", key, "category", category)
	return key, s.publicURL + "/" + key, nil
}

// DeletePhoto removes an object; a missing object is not an error.
func (s *Store) DeletePhoto(ctx context.Context, key string) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("gallery: s3 delete %s: %w", key, err)
	}
	return nil
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/kaushalvasoya/homeco-real-estate/internal/config"
	"github.com/kaushalvasoya/homeco-real-estate/internal/models"
	"github.com/kaushalvasoya/homeco-real-estate/internal/utils"
)

// ImageStorage is the adapter for the remote image host. Upload returns the
// stable public URL together with the deletion handle (the object key);
// Release is best-effort and the caller decides whether a failure is fatal.
type ImageStorage interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (models.PropertyImage, error)
	Release(ctx context.Context, key string) error
}

// s3Storage implements ImageStorage on top of S3-compatible object storage.
type s3Storage struct {
	cfg      *config.Config
	s3Client *s3.Client
}

// NewS3Storage creates a new S3-backed image storage adapter.
func NewS3Storage(cfg *config.Config) (ImageStorage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &s3Storage{
		cfg:      cfg,
		s3Client: s3.NewFromConfig(awsCfg),
	}, nil
}

// Upload stores the buffer under a fresh object key and returns the image
// record to persist. Keys never collide: each gets a UUID prefix.
func (s *s3Storage) Upload(ctx context.Context, data []byte, filename, contentType string) (models.PropertyImage, error) {
	objectKey := fmt.Sprintf("properties/%s_%s", uuid.NewString(), sanitizeFilename(filename))

	// Bounded retry with backoff: the upload is the only slow network call
	// on the property write path and transient provider errors are common.
	err := utils.WithRetries(func() error {
		_, putErr := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.cfg.AwsS3Bucket),
			Key:         aws.String(objectKey),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		return putErr
	}, 2, func(err error) bool {
		return ctx.Err() == nil
	})
	if err != nil {
		return models.PropertyImage{}, fmt.Errorf("failed to upload image %s: %w", objectKey, err)
	}

	return models.PropertyImage{
		URL: strings.TrimSuffix(s.cfg.ImageBaseURL, "/") + "/" + objectKey,
		Key: objectKey,
	}, nil
}

// Release deletes the object behind a previously issued deletion handle.
func (s *s3Storage) Release(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", key, err)
	}
	return nil
}

// sanitizeFilename strips any path components and whitespace from an
// uploaded filename before it becomes part of an object key.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
	if name == "" || name == "." {
		name = "image"
	}
	return name
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/aminofox/flvmeta/pkg/logger"
)

// S3Storage implements an S3-compatible archival backend
type S3Storage struct {
	client *s3.Client
	config Config
	logger logger.Logger
}

// NewS3Storage creates a new S3 storage backend
func NewS3Storage(cfg Config, log logger.Logger) (*S3Storage, error) {
	if cfg.Type != StorageTypeS3 {
		return nil, fmt.Errorf("invalid storage type: %s", cfg.Type)
	}

	if log == nil {
		log = logger.NewDefaultLogger(logger.InfoLevel, "text")
	}

	var awsCfg aws.Config
	var err error

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Options := []func(*s3.Options){
		func(o *s3.Options) {
			o.UsePathStyle = true // for S3-compatible services like MinIO
		},
	}

	if cfg.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return &S3Storage{
		client: s3.NewFromConfig(awsCfg, s3Options...),
		config: cfg,
		logger: log,
	}, nil
}

// Upload uploads data to S3
func (s *S3Storage) Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) error {
	// Buffer the payload so retries can replay it.
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Warn("Retrying S3 upload",
				logger.Int("attempt", attempt),
				logger.String("key", key),
			)
			time.Sleep(s.config.RetryDelay)
		}

		input := &s3.PutObjectInput{
			Bucket:      aws.String(s.config.Bucket),
			Key:         aws.String(s.normalizeKey(key)),
			Body:        bytes.NewReader(buf.Bytes()),
			ContentType: aws.String(contentType),
		}

		if _, err := s.client.PutObject(ctx, input); err != nil {
			lastErr = err
			continue
		}

		s.logger.Info("S3 upload completed",
			logger.String("bucket", s.config.Bucket),
			logger.String("key", key),
			logger.Int64("size", size),
		)

		return nil
	}

	return fmt.Errorf("S3 upload failed after %d attempts: %w", s.config.MaxRetries+1, lastErr)
}

// Download downloads data from S3
func (s *S3Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.normalizeKey(key)),
	}

	result, err := s.client.GetObject(ctx, input)
	if err != nil {
		if s.isNotFoundError(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}

	return result.Body, nil
}

// Delete removes an object from S3
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.normalizeKey(key)),
	}

	if _, err := s.client.DeleteObject(ctx, input); err != nil {
		if s.isNotFoundError(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// Exists checks if an object exists in S3
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.normalizeKey(key)),
	}

	if _, err := s.client.HeadObject(ctx, input); err != nil {
		if s.isNotFoundError(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Close closes the storage backend
func (s *S3Storage) Close() error {
	return nil
}

// normalizeKey normalizes an S3 key
func (s *S3Storage) normalizeKey(key string) string {
	return strings.TrimPrefix(key, "/")
}

// isNotFoundError checks if an error is a "not found" error
func (s *S3Storage) isNotFoundError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound"
	}
	return false
}

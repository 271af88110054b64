package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Common errors
var (
	ErrObjectNotFound   = errors.New("object not found")
	ErrInvalidObjectKey = errors.New("invalid object key")
	ErrInvalidStorage   = errors.New("invalid storage type")
)

// StorageType represents the type of storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// Config contains configuration for storage backends
type Config struct {
	Type            StorageType
	BasePath        string
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	MaxRetries      int
	RetryDelay      time.Duration
}

// DefaultConfig returns a default storage configuration
func DefaultConfig() Config {
	return Config{
		Type:       StorageTypeLocal,
		BasePath:   "./archive",
		Region:     "us-east-1",
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		UseSSL:     true,
	}
}

// Storage defines the interface for archive backends. Injected streams and
// their sidecar records are uploaded through it.
type Storage interface {
	Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

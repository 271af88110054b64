package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aminofox/flvmeta/pkg/logger"
)

// LocalStorage implements local filesystem archival
type LocalStorage struct {
	config Config
	logger logger.Logger
}

// NewLocalStorage creates a new local storage backend
func NewLocalStorage(config Config, log logger.Logger) (*LocalStorage, error) {
	if config.Type != StorageTypeLocal {
		return nil, fmt.Errorf("invalid storage type: %s", config.Type)
	}

	if log == nil {
		log = logger.NewDefaultLogger(logger.InfoLevel, "text")
	}

	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &LocalStorage{
		config: config,
		logger: log,
	}, nil
}

// Upload writes data below the base path
func (s *LocalStorage) Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) error {
	filePath, err := s.filePath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Warn("Retrying upload",
				logger.Int("attempt", attempt),
				logger.String("key", key),
			)
			time.Sleep(s.config.RetryDelay)
		}

		file, err := os.Create(filePath)
		if err != nil {
			lastErr = err
			continue
		}

		written, err := io.Copy(file, data)
		file.Close()

		if err != nil {
			lastErr = err
			os.Remove(filePath)
			continue
		}

		if size > 0 && written != size {
			lastErr = fmt.Errorf("size mismatch: expected %d, wrote %d", size, written)
			os.Remove(filePath)
			continue
		}

		s.logger.Info("Upload completed",
			logger.String("key", key),
			logger.Int64("size", written),
		)

		return nil
	}

	return fmt.Errorf("upload failed after %d attempts: %w", s.config.MaxRetries+1, lastErr)
}

// Download opens an archived object for reading
func (s *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	filePath, err := s.filePath(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes an archived object
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	filePath, err := s.filePath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// Exists checks whether an archived object is present
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	filePath, err := s.filePath(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Close closes the storage backend
func (s *LocalStorage) Close() error {
	return nil
}

// filePath resolves a key below the base path, rejecting traversal
func (s *LocalStorage) filePath(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", ErrInvalidObjectKey
	}
	return filepath.Join(s.config.BasePath, filepath.FromSlash(key)), nil
}

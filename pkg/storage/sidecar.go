package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/aminofox/flvmeta/pkg/flv"
	"github.com/aminofox/flvmeta/pkg/logger"
)

// Sidecar is the JSON record archived next to an injected stream. The digest
// lets consumers verify the archived bytes without re-reading the stream.
type Sidecar struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Output    string    `json:"output"`
	Size      int64     `json:"size"`
	Digest    string    `json:"digest"` // BLAKE2b-256 over the injected stream
	Duration  float64   `json:"duration"`
	Keyframes int       `json:"keyframes"`
	Width     float64   `json:"width,omitempty"`
	Height    float64   `json:"height,omitempty"`
	HasAudio  bool      `json:"has_audio"`
	HasVideo  bool      `json:"has_video"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSidecar builds the sidecar record for an injected stream.
func NewSidecar(source, output string, data []byte, sum *flv.Summary) *Sidecar {
	digest := blake2b.Sum256(data)

	return &Sidecar{
		ID:        uuid.New().String(),
		Source:    source,
		Output:    output,
		Size:      int64(len(data)),
		Digest:    hex.EncodeToString(digest[:]),
		Duration:  sum.Duration,
		Keyframes: sum.Keyframes,
		Width:     sum.Width,
		Height:    sum.Height,
		HasAudio:  sum.HasAudio,
		HasVideo:  sum.HasVideo,
		CreatedAt: time.Now().UTC(),
	}
}

// Key returns the archive key of the sidecar record for a stream key.
func (s *Sidecar) Key(streamKey string) string {
	return streamKey + ".meta.json"
}

// Marshal renders the sidecar as JSON.
func (s *Sidecar) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Archive uploads an injected stream and its sidecar record.
func Archive(ctx context.Context, st Storage, key, contentType string, data []byte, sc *Sidecar, log logger.Logger) error {
	if log == nil {
		log = logger.NewDefaultLogger(logger.InfoLevel, "text")
	}

	if err := st.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return fmt.Errorf("archiving stream: %w", err)
	}

	record, err := sc.Marshal()
	if err != nil {
		return fmt.Errorf("encoding sidecar: %w", err)
	}

	if err := st.Upload(ctx, sc.Key(key), bytes.NewReader(record), int64(len(record)), "application/json"); err != nil {
		return fmt.Errorf("archiving sidecar: %w", err)
	}

	log.Info("Archive completed",
		logger.String("key", key),
		logger.String("id", sc.ID),
		logger.Int64("size", sc.Size),
	)

	return nil
}

// New creates a storage backend for the configured type.
func New(cfg Config, log logger.Logger) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg, log)
	case StorageTypeS3:
		return NewS3Storage(cfg, log)
	default:
		return nil, ErrInvalidStorage
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tool configuration. Command-line flags override it.
type Config struct {
	// Creator is the default creator label written into the metadata.
	Creator string `yaml:"creator"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Archive configuration
	Archive ArchiveConfig `yaml:"archive"`

	// Storage configuration for the archive backend
	Storage StorageConfig `yaml:"storage"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Format is the log output format (text, json)
	Format string `yaml:"format"`
}

// ArchiveConfig controls archival of injected files
type ArchiveConfig struct {
	// Enabled archives every injected file written to a regular path
	Enabled bool `yaml:"enabled"`

	// KeyPrefix is prepended to archive keys
	KeyPrefix string `yaml:"key_prefix"`

	// ContentType is the content type recorded for archived streams
	ContentType string `yaml:"content_type"`
}

// StorageConfig holds storage backend configuration
type StorageConfig struct {
	// Type is the storage backend type (local, s3)
	Type string `yaml:"type"`

	// BasePath is the base path for local storage
	BasePath string `yaml:"base_path"`

	// S3 configuration
	S3 S3Config `yaml:"s3"`
}

// S3Config holds S3-compatible storage configuration
type S3Config struct {
	// Endpoint is the S3 endpoint URL (for S3-compatible services)
	Endpoint string `yaml:"endpoint"`

	// Region is the AWS region
	Region string `yaml:"region"`

	// Bucket is the S3 bucket name
	Bucket string `yaml:"bucket"`

	// AccessKeyID is the S3 access key
	AccessKeyID string `yaml:"access_key_id"`

	// SecretAccessKey is the S3 secret key
	SecretAccessKey string `yaml:"secret_access_key"`

	// UseSSL is copied into the storage backend config; the S3 backend does
	// not read it, the scheme of Endpoint decides
	UseSSL bool `yaml:"use_ssl"`

	// MaxRetries is the upload retry limit
	MaxRetries int `yaml:"max_retries"`

	// RetryDelay is the pause between retries
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Archive: ArchiveConfig{
			Enabled:     false,
			ContentType: "video/x-flv",
		},
		Storage: StorageConfig{
			Type:     "local",
			BasePath: "./archive",
			S3: S3Config{
				Region:     "us-east-1",
				UseSSL:     true,
				MaxRetries: 3,
				RetryDelay: 2 * time.Second,
			},
		},
	}
}

// Load reads a YAML configuration file over the defaults and applies
// environment overrides.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.loadFromEnv()

	return cfg, nil
}

// loadFromEnv applies environment variable overrides
func (c *Config) loadFromEnv() {
	if v := os.Getenv("FLVMETA_CREATOR"); v != "" {
		c.Creator = v
	}
	if v := os.Getenv("FLVMETA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FLVMETA_S3_BUCKET"); v != "" {
		c.Storage.S3.Bucket = v
	}
	if v := os.Getenv("FLVMETA_S3_ACCESS_KEY_ID"); v != "" {
		c.Storage.S3.AccessKeyID = v
	}
	if v := os.Getenv("FLVMETA_S3_SECRET_ACCESS_KEY"); v != "" {
		c.Storage.S3.SecretAccessKey = v
	}
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "local":
		if c.Archive.Enabled && c.Storage.BasePath == "" {
			return fmt.Errorf("local storage requires a base path")
		}
	case "s3":
		if c.Archive.Enabled && c.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 storage requires a bucket")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}
	return nil
}

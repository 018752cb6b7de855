// Package storage provides object storage for source audio files.
// Supported providers: local filesystem, Amazon S3 (and S3-compatible services).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"github.com/skillsenselab/audiopipe/logger"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Storage defines the interface for object storage operations.
//
// Implementations map a missing object to errors.NotFound and any other
// backend failure to errors.Storage, so callers can branch on error codes
// instead of backend-specific error types.
type Storage interface {
	// Upload writes data from reader to the given key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download returns a reader for the object at the given key.
	// The caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at the given key.
	// Returns nil if the object does not exist.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// Config holds storage configuration.
type Config struct {
	// Provider selects the storage backend: "local" or "s3".
	Provider string `yaml:"provider" mapstructure:"provider"`

	// BasePath is the root directory for local storage.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`

	// Bucket is the S3 bucket name.
	Bucket string `yaml:"bucket" mapstructure:"bucket"`

	// Region is the AWS region for S3.
	Region string `yaml:"region" mapstructure:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// AccessKey is the AWS access key ID.
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`

	// SecretKey is the AWS secret access key.
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	if c.BasePath == "" {
		c.BasePath = "/tmp/audiopipe"
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
}

// Factory creates a Storage implementation from configuration.
type Factory func(cfg Config, log *logger.Logger) (Storage, error)

var factories = make(map[string]Factory)

// RegisterFactory registers a storage backend factory for the given provider
// name. Implementation packages call this in an init function; import the
// desired provider package (e.g. _ ".../storage/local") to make it available.
func RegisterFactory(name string, f Factory) {
	factories[name] = f
}

// New creates a Storage implementation based on the given Config.
func New(cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()

	l := log.WithComponent("storage")
	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	l.Info("initializing storage", map[string]interface{}{"provider": cfg.Provider})
	return f(cfg, l)
}

// UploadBytes stores data at the given key.
func UploadBytes(ctx context.Context, s Storage, key string, data []byte) error {
	return s.Upload(ctx, key, bytes.NewReader(data))
}

// DownloadBytes retrieves the full object at the given key.
func DownloadBytes(ctx context.Context, s Storage, key string) ([]byte, error) {
	rc, err := s.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// TempKey builds a collision-free object key for an uploaded source file:
// temp/<uuid>/<filename>.
func TempKey(filename string) string {
	return path.Join("temp", uuid.NewString(), path.Base(filename))
}

// Package local implements storage.Storage on the local filesystem.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/skillsenselab/audiopipe/errors"
	"github.com/skillsenselab/audiopipe/logger"
	"github.com/skillsenselab/audiopipe/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return NewStorage(cfg.BasePath)
	})
}

// Storage implements storage.Storage using the local filesystem.
type Storage struct {
	basePath string
}

// NewStorage creates a local filesystem storage rooted at basePath.
func NewStorage(basePath string) (*Storage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("resolve base path: %w", err))
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("create base directory: %w", err))
	}
	return &Storage{basePath: abs}, nil
}

// Upload writes data from reader to a local file.
func (s *Storage) Upload(_ context.Context, key string, reader io.Reader) error {
	fullPath := filepath.Join(s.basePath, filepath.Clean(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return apperrors.Storage(fmt.Errorf("create directory: %w", err))
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("create file: %w", err))
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, reader); err != nil {
		return apperrors.Storage(fmt.Errorf("write file: %w", err))
	}
	return nil
}

// Download returns a reader for the local file at the given key.
func (s *Storage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, filepath.Clean(key))
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound(key)
		}
		return nil, apperrors.Storage(fmt.Errorf("open file: %w", err))
	}
	return f, nil
}

// Delete removes a local file. Returns nil if the file does not exist.
func (s *Storage) Delete(_ context.Context, key string) error {
	fullPath := filepath.Join(s.basePath, filepath.Clean(key))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return apperrors.Storage(fmt.Errorf("delete file: %w", err))
	}
	return nil
}

// Exists checks whether a local file exists.
func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	fullPath := filepath.Join(s.basePath, filepath.Clean(key))
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, apperrors.Storage(fmt.Errorf("stat file: %w", err))
	}
	return true, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"vulnsphere/internal/metrics"
)

// Filesystem implements ObjectStorage on a local directory.
type Filesystem struct {
	basePath string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewFilesystem(basePath string, logger *slog.Logger, m *metrics.Metrics) (*Filesystem, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}

	logger.Info("filesystem storage initialized", "base_path", abs)
	return &Filesystem{
		basePath: abs,
		logger:   logger.With("component", "filesystem_storage"),
		metrics:  m,
	}, nil
}

func (s *Filesystem) objectPath(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.basePath, clean), nil
}

// Put writes to a temp file in the target directory and renames it into place.
func (s *Filesystem) Put(ctx context.Context, key string, r io.Reader, meta ObjectMetadata) (err error) {
	defer func() { s.metrics.StorageOp("filesystem", "put", err) }()

	path, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync data: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move object into place: %w", err)
	}

	s.logger.Info("object stored", "key", key, "bytes", n, "content_type", meta.ContentType)
	return nil
}

func (s *Filesystem) Get(ctx context.Context, key string) (rc io.ReadCloser, err error) {
	defer func() { s.metrics.StorageOp("filesystem", "get", err) }()

	path, err := s.objectPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

func (s *Filesystem) Delete(ctx context.Context, key string) (err error) {
	defer func() { s.metrics.StorageOp("filesystem", "delete", err) }()

	path, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *Filesystem) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.objectPath(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

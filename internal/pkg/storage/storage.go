package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

// Storage defines the minimal interface for object storage backends.
type Storage interface {
	// Put stores an object under key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes key. Returns nil if the object doesn't exist.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for key.
	GetURL(key string) string
}

// Config selects and configures a backend.
type Config struct {
	Driver string // s3 | local

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	LocalPath string
	LocalURL  string
}

// New builds the backend named by cfg.Driver.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		s, err := NewS3Storage(cfg)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "local", "":
		return NewLocalStorage(cfg.LocalPath, cfg.LocalURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/ai-reports/internal/config"
)

// ErrObjectNotFound is returned by GetObject for an unknown key.
var ErrObjectNotFound = errors.New("object not found in storage")

// FileStorage keeps rendered report documents outside the database.
type FileStorage interface {
	PutObject(ctx context.Context, objectKey, contentType string, body []byte) error
	GetObject(ctx context.Context, objectKey string) ([]byte, error)
	// DeleteObject removes an object; deleting a missing key is not an error.
	DeleteObject(ctx context.Context, objectKey string) error
}

// New builds the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (FileStorage, error) {
	switch cfg.Driver {
	case "local":
		return NewLocalStorage(cfg.Path)
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}

package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
)

// Store abstracts the artifact object store. Keys are forward-slash paths
// relative to the store root (see keys.go for the published layout).
type Store interface {
	// Put uploads an object and returns its public URL.
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// Get opens an object for reading. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns all object keys under the prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Exists reports whether the key is present without fetching the body.
	Exists(ctx context.Context, key string) (bool, error)
	// PublicURL returns the externally reachable URL for a key.
	PublicURL(key string) string
	// HealthCheck verifies the backend is reachable and writable enough to list.
	HealthCheck(ctx context.Context) error
}

// New constructs the store selected by the storage configuration.
func New(cfg config.Storage) (Store, error) {
	switch cfg.Backend {
	case config.StorageBackendS3:
		return NewS3Store(cfg)
	case config.StorageBackendLocal:
		return NewLocalStore(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

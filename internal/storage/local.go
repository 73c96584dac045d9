package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
)

// LocalStore keeps artifacts on the local filesystem under a root directory.
// It mirrors the object key layout one-to-one, which makes it useful for
// development and for single-host deployments serving the store directory
// through a static web server.
type LocalStore struct {
	root          string
	publicBaseURL string
}

// NewLocalStore validates and creates the store root.
func NewLocalStore(cfg config.Storage) (*LocalStore, error) {
	if cfg.LocalDir == "" {
		return nil, fmt.Errorf("local storage requires local_dir")
	}
	if err := os.MkdirAll(cfg.LocalDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &LocalStore{
		root:          cfg.LocalDir,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (l *LocalStore) pathFor(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

// Put writes the object atomically via a temp file rename.
func (l *LocalStore) Put(ctx context.Context, key string, body io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := l.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create prefix for %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("publish %s: %w", key, err)
	}
	return l.PublicURL(key), nil
}

// Get opens an object for reading.
func (l *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(l.pathFor(key))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return file, nil
}

// List walks the prefix directory and returns keys in slash form.
func (l *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return keys, nil
}

// Exists reports whether the key is present.
func (l *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(l.pathFor(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PublicURL joins the configured base URL with the key, falling back to a
// file path when no base URL is set.
func (l *LocalStore) PublicURL(key string) string {
	if l.publicBaseURL != "" {
		return l.publicBaseURL + "/" + key
	}
	return "file://" + l.pathFor(key)
}

// HealthCheck verifies the store root is writable.
func (l *LocalStore) HealthCheck(_ context.Context) error {
	probe, err := os.CreateTemp(l.root, ".health-*")
	if err != nil {
		return fmt.Errorf("store root not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

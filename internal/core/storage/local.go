// Package storage provides the object store used for uploaded images.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// LocalImageStore writes objects below dir and serves them from baseURL.
// It implements domain.ImageStore.
type LocalImageStore struct {
	dir     string
	baseURL string
}

// NewLocalImageStore creates the root directory when missing.
func NewLocalImageStore(dir, baseURL string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalImageStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the root directory, for serving the files back over HTTP.
func (s *LocalImageStore) Dir() string {
	return s.dir
}

// Put stores data as folder/name plus an extension derived from contentType
// and returns its public URL. An existing object with the same key is replaced.
func (s *LocalImageStore) Put(ctx context.Context, folder, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.Contains(folder, "..") || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid object key %q/%q", folder, name)
	}

	key := filepath.ToSlash(filepath.Join(folder, name+extensions[contentType]))
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

// Package storage reads and writes uploaded assets (background images,
// signatures, fonts) under a fixed root. Paths are slash-separated and
// relative to that root; anything resolving outside it is rejected.
package storage

import (
	"context"
	"path"
	"strings"

	"certificate-service/internal/errs"
)

// Store is the asset storage contract used by the font service, the asset
// cache and the upload handlers.
type Store interface {
	Read(ctx context.Context, p string) ([]byte, error)
	Write(ctx context.Context, p string, data []byte) error
	Delete(ctx context.Context, p string) error
	// List returns the names of the files directly under dir.
	List(ctx context.Context, dir string) ([]string, error)
}

// CleanPath normalizes p to a root-relative key, rejecting traversal.
func CleanPath(p string) (string, error) {
	if strings.ContainsRune(p, '\\') || strings.ContainsRune(p, 0) {
		return "", errs.Invalid("storage.path", "illegal character in path %q", p)
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", errs.Invalid("storage.path", "path %q escapes the asset root", p)
		}
	}
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	if clean == "" {
		return "", errs.Invalid("storage.path", "empty path")
	}
	return clean, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"certificate-service/internal/errs"
)

// LocalStore keeps assets on the local filesystem below Root.
type LocalStore struct {
	root string
	mu   sync.RWMutex
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve asset root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create asset root %s: %w", abs, err)
	}
	return &LocalStore{root: abs}, nil
}

// Root returns the absolute asset root.
func (s *LocalStore) Root() string {
	return s.root
}

// resolve maps a key to an absolute path and re-checks containment after
// joining.
func (s *LocalStore) resolve(p string) (string, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errs.Invalid("storage.path", "path %q escapes the asset root", p)
	}
	return full, nil
}

func (s *LocalStore) Read(_ context.Context, p string) ([]byte, error) {
	full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.NotFound("storage.read", "asset", p)
	}
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", p, err)
	}
	return data, nil
}

func (s *LocalStore) Write(_ context.Context, p string, data []byte) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create asset dir for %s: %w", p, err)
	}

	// Write to a temp file first, then rename.
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write asset %s: %w", p, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write asset %s: %w", p, err)
	}
	return nil
}

func (s *LocalStore) Delete(_ context.Context, p string) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(full)
	if errors.Is(err, fs.ErrNotExist) {
		return errs.NotFound("storage.delete", "asset", p)
	}
	if err != nil {
		return fmt.Errorf("delete asset %s: %w", p, err)
	}
	return nil
}

func (s *LocalStore) List(_ context.Context, dir string) ([]string, error) {
	full, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list assets %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

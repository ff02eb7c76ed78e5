package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore writes one file per namespace/key under a data directory.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dataDir}, nil
}

func (s *FileStore) path(namespace, key string) (string, error) {
	for _, part := range []string{namespace, key} {
		if part == "" || strings.ContainsAny(part, `/\`) || part == "." || part == ".." {
			return "", fmt.Errorf("invalid save path segment %q", part)
		}
	}
	return filepath.Join(s.dir, namespace, key+".json"), nil
}

func (s *FileStore) Save(ctx context.Context, namespace, key string, blob []byte) error {
	_ = ctx

	p, err := s.path(namespace, key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (s *FileStore) Load(ctx context.Context, namespace, key string) ([]byte, error) {
	_ = ctx

	p, err := s.path(namespace, key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s/%s: %w", namespace, key, ErrNotFound)
		}
		return nil, err
	}
	return b, nil
}

func (s *FileStore) Delete(ctx context.Context, namespace, key string) error {
	_ = ctx

	p, err := s.path(namespace, key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

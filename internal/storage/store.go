// Package storage persists opaque save blobs under a namespace and key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrNotFound = errors.New("save not found")

type Store interface {
	Save(ctx context.Context, namespace, key string, blob []byte) error
	// Load returns ErrNotFound when nothing was saved under namespace/key.
	Load(ctx context.Context, namespace, key string) ([]byte, error)
	Delete(ctx context.Context, namespace, key string) error
}

// MemoryStore keeps blobs in process (dev/test use).
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string][]byte{}}
}

func memoryKey(namespace, key string) string {
	return namespace + "\x00" + key
}

func (s *MemoryStore) Save(ctx context.Context, namespace, key string, blob []byte) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[memoryKey(namespace, key)] = append([]byte(nil), blob...)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, namespace, key string) ([]byte, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[memoryKey(namespace, key)]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", namespace, key, ErrNotFound)
	}
	return append([]byte(nil), b...), nil
}

func (s *MemoryStore) Delete(ctx context.Context, namespace, key string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, memoryKey(namespace, key))
	return nil
}

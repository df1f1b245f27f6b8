package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

// MemoryObjectStore keeps objects in process memory.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates an empty MemoryObjectStore.
func NewMemory() *MemoryObjectStore {
	return &MemoryObjectStore{
		mu:      sync.RWMutex{},
		objects: make(map[string][]byte),
	}
}

// Download returns a copy of the object stored under key.
func (m *MemoryObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrObjectNotFound, key)
	}

	return bytes.Clone(data), nil
}

// Upload stores a copy of data under key.
func (m *MemoryObjectStore) Upload(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = bytes.Clone(data)

	return nil
}

// Delete removes the object under key.
func (m *MemoryObjectStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)

	return nil
}

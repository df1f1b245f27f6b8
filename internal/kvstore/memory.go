// Package kvstore provides the key-value backends behind the persistence adapter.
package kvstore

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/book-expert/voice-studio/internal/core"
)

// Memory is an in-process KeyValueStore. Values are copied on the way in and out.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		mu:     sync.RWMutex{},
		values: make(map[string][]byte),
	}
}

// Get returns the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", core.ErrKeyNotFound, key)
	}

	return bytes.Clone(value), nil
}

// Set replaces the value stored under key.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = bytes.Clone(value)

	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)

	return nil
}

package mirror

import (
	"context"
	"fmt"
	"io"
	"sync"

	"devgate/internal/gate"
)

// MemoryMirror is an in-memory implementation of the Mirror interface.
// It stores all archives in memory, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryMirror struct {
	name     string
	archives map[string][]byte
	mu       sync.RWMutex
}

// NewMemoryMirror creates a new in-memory mirror with the given name.
func NewMemoryMirror(name string) *MemoryMirror {
	return &MemoryMirror{
		name:     name,
		archives: make(map[string][]byte),
	}
}

// Put stores archive content under key.
func (m *MemoryMirror) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Idempotent: storing the same key multiple times replaces the copy
	m.archives[key] = data
	return nil
}

// Get retrieves an archive by key. Used by tests to verify uploads.
func (m *MemoryMirror) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.archives[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// Keys returns all stored archive keys.
func (m *MemoryMirror) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.archives))
	for k := range m.archives {
		keys = append(keys, k)
	}
	return keys
}

// ValidateSetup always succeeds for the in-memory mirror.
func (m *MemoryMirror) ValidateSetup(ctx context.Context) error {
	return nil
}

// Compile-time check that MemoryMirror implements gate.Mirror
var _ gate.Mirror = (*MemoryMirror)(nil)

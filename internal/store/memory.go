package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"devgate/internal/gate"
)

// MemoryStore is an in-memory implementation of gate.DocumentStore.
// Documents are held as marshaled JSON so reads always decode a
// snapshot, never alias a caller's value. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Read unmarshals the document stored under key into v.
func (s *MemoryStore) Read(key string, v any) (bool, error) {
	s.mu.RLock()
	body, ok := s.docs[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("decoding document %q: %w", key, err)
	}
	return true, nil
}

// Write marshals v and replaces the document under key.
func (s *MemoryStore) Write(key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding document %q: %w", key, err)
	}

	s.mu.Lock()
	s.docs[key] = body
	s.mu.Unlock()
	return nil
}

// Close releases nothing for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// Compile-time check that MemoryStore implements gate.DocumentStore
var _ gate.DocumentStore = (*MemoryStore)(nil)

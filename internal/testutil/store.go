package testutil

import (
	"testing"

	"devgate/internal/gate"
	"devgate/internal/store"
)

// NewTestStore creates an in-memory document store for tests.
func NewTestStore(t *testing.T) gate.DocumentStore {
	t.Helper()

	st := store.NewMemoryStore()
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// FailingStore returns the given error from every Read and Write. Used
// to exercise backend-error paths.
type FailingStore struct {
	Err error
}

func (s *FailingStore) Read(key string, v any) (bool, error) { return false, s.Err }
func (s *FailingStore) Write(key string, v any) error        { return s.Err }
func (s *FailingStore) Close() error                         { return nil }

var _ gate.DocumentStore = (*FailingStore)(nil)

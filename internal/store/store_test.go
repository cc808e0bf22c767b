package store

import (
	"testing"
	"time"
)

type testDoc struct {
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// storeUnderTest runs the shared DocumentStore contract checks.
func storeUnderTest(t *testing.T, open func(t *testing.T) interface {
	Read(key string, v any) (bool, error)
	Write(key string, v any) error
	Close() error
}) {
	t.Run("read of a missing key reports not found", func(t *testing.T) {
		s := open(t)
		var doc testDoc
		found, err := s.Read("missing", &doc)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if found {
			t.Error("Read() found = true for missing key")
		}
	})

	t.Run("write then read round-trips", func(t *testing.T) {
		s := open(t)
		in := testDoc{Name: "alpha", Count: 3, UpdatedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
		if err := s.Write("doc-1", in); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		var out testDoc
		found, err := s.Read("doc-1", &out)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if !found {
			t.Fatal("Read() found = false after Write()")
		}
		if out.Name != in.Name || out.Count != in.Count || !out.UpdatedAt.Equal(in.UpdatedAt) {
			t.Errorf("Read() = %+v, want %+v", out, in)
		}
	})

	t.Run("write replaces the whole document", func(t *testing.T) {
		s := open(t)
		if err := s.Write("doc-1", testDoc{Name: "v1", Count: 1}); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if err := s.Write("doc-1", testDoc{Name: "v2"}); err != nil {
			t.Fatalf("second Write() error = %v", err)
		}

		var out testDoc
		if _, err := s.Read("doc-1", &out); err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if out.Name != "v2" || out.Count != 0 {
			t.Errorf("Read() = %+v, want replaced document", out)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := open(t)
		s.Write("a", testDoc{Name: "a"})
		s.Write("b", testDoc{Name: "b"})

		var out testDoc
		if _, err := s.Read("a", &out); err != nil || out.Name != "a" {
			t.Errorf("Read(a) = %+v, %v", out, err)
		}
		if _, err := s.Read("b", &out); err != nil || out.Name != "b" {
			t.Errorf("Read(b) = %+v, %v", out, err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, func(t *testing.T) interface {
		Read(key string, v any) (bool, error)
		Write(key string, v any) error
		Close() error
	} {
		s := NewMemoryStore()
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestMemoryStore_ReadCopies(t *testing.T) {
	s := NewMemoryStore()
	in := map[string][]string{"scopes": {"read-device-info"}}
	if err := s.Write("doc", in); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// Mutating the original after Write must not leak into the store.
	in["scopes"][0] = "tampered"

	var out map[string][]string
	if _, err := s.Read("doc", &out); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if out["scopes"][0] != "read-device-info" {
		t.Error("store aliased the caller's value")
	}
}

func TestSQLiteStore(t *testing.T) {
	storeUnderTest(t, func(t *testing.T) interface {
		Read(key string, v any) (bool, error)
		Write(key string, v any) error
		Close() error
	} {
		s, err := NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStore_CheckMigrations(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	if err := s.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() after open returned %v", err)
	}
}

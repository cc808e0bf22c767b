package store

import (
	"testing"

	"devgate/internal/config"
)

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("memory store", func(t *testing.T) {
		got, err := NewStoreFromConfig(config.StoreConfig{Type: "memory"}, "test-host")
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		if got == nil {
			t.Fatal("NewStoreFromConfig() returned nil")
		}
		got.Close()
	})

	t.Run("sqlite store", func(t *testing.T) {
		cfg := config.StoreConfig{Type: "sqlite", DataDir: t.TempDir()}
		got, err := NewStoreFromConfig(cfg, "test-host")
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		if got == nil {
			t.Fatal("NewStoreFromConfig() returned nil")
		}
		got.Close()
	})

	t.Run("sqlite store without data_dir", func(t *testing.T) {
		got, err := NewStoreFromConfig(config.StoreConfig{Type: "sqlite"}, "test-host")
		if err == nil {
			t.Error("NewStoreFromConfig() expected error for missing data_dir")
		}
		if got != nil {
			got.Close()
			t.Error("NewStoreFromConfig() should return nil on error")
		}
	})

	t.Run("unknown store type", func(t *testing.T) {
		got, err := NewStoreFromConfig(config.StoreConfig{Type: "etcd"}, "test-host")
		if err == nil {
			t.Error("NewStoreFromConfig() expected error for unknown type")
		}
		if got != nil {
			got.Close()
			t.Error("NewStoreFromConfig() should return nil on error")
		}
	})
}

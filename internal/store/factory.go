package store

import (
	"fmt"
	"os"
	"path/filepath"

	"devgate/internal/config"
	"devgate/internal/gate"
)

// NewStoreFromConfig creates a DocumentStore implementation based on the
// store config type.
func NewStoreFromConfig(cfg config.StoreConfig, hostID string) (gate.DocumentStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating store data dir: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, hostID+".db"))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}

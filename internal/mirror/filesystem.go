package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"devgate/internal/gate"
)

// FileSystemMirror is a filesystem-based implementation of the Mirror
// interface. Archives are stored as files under the mirror root, with
// slashes in keys mapping to subdirectories:
//
//	<root>/
//	  <label>/
//	    <archive name>
type FileSystemMirror struct {
	name string
	root string
}

// NewFileSystemMirror creates a new filesystem mirror rooted at the given path.
func NewFileSystemMirror(name, root string) (*FileSystemMirror, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mirror root: %w", err)
	}
	return &FileSystemMirror{name: name, root: root}, nil
}

// Put stores archive content under key using an atomic write (temp file
// + rename), so a crashed upload never leaves a partial archive behind.
func (m *FileSystemMirror) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	destPath := filepath.Join(m.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// ValidateSetup verifies that the mirror root is accessible.
func (m *FileSystemMirror) ValidateSetup(ctx context.Context) error {
	info, err := os.Stat(m.root)
	if err != nil {
		return fmt.Errorf("mirror root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mirror root is not a directory: %s", m.root)
	}
	return nil
}

// Compile-time check that FileSystemMirror implements gate.Mirror
var _ gate.Mirror = (*FileSystemMirror)(nil)

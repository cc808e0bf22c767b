package fs

import (
	"archive/tar"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"devgate/internal/gate"
)

// OSFilesystemManager is the real filesystem implementation of
// gate.FilesystemManager. It performs actual filesystem operations
// using the os package. Tree copies and archives honor the configured
// ignore patterns plus any .devgateignore file at the source root.
type OSFilesystemManager struct {
	ignore *IgnoreMatcher
}

// NewOSFilesystemManager creates a new filesystem manager that operates
// on the real filesystem with no configured ignore patterns.
func NewOSFilesystemManager() *OSFilesystemManager {
	return NewOSFilesystemManagerWithIgnore(nil)
}

// NewOSFilesystemManagerWithIgnore creates a filesystem manager whose
// tree operations skip paths matching the given ignore patterns.
func NewOSFilesystemManagerWithIgnore(ignorePatterns []string) *OSFilesystemManager {
	patterns := append([]string{}, defaultIgnorePatterns...)
	patterns = append(patterns, ignorePatterns...)
	return &OSFilesystemManager{ignore: NewIgnoreMatcher(patterns)}
}

// treeMatcher combines the configured ignore patterns with any
// .devgateignore file found at the source root.
func (m *OSFilesystemManager) treeMatcher(srcDir string) *IgnoreMatcher {
	filePatterns, err := ParseIgnoreFile(filepath.Join(srcDir, ".devgateignore"))
	if err != nil || len(filePatterns) == 0 {
		return m.ignore
	}
	combined := append([]string{}, defaultIgnorePatterns...)
	combined = append(combined, filePatterns...)
	if m.ignore != nil {
		for _, p := range m.ignore.patterns {
			combined = append(combined, p.pattern)
		}
	}
	return NewIgnoreMatcher(combined)
}

// Exists reports whether path exists.
func (m *OSFilesystemManager) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func (m *OSFilesystemManager) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// EnsureDir creates the directory and any missing parents.
func (m *OSFilesystemManager) EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return nil
}

// WriteFile writes content to path, creating parent directories.
func (m *OSFilesystemManager) WriteFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// RemovePath deletes a file or directory tree. Missing paths are not an
// error.
func (m *OSFilesystemManager) RemovePath(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing path: %w", err)
	}
	return nil
}

// CopyFile copies a single regular file to destPath.
func (m *OSFilesystemManager) CopyFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("source is a directory: %s", srcPath)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return fmt.Errorf("copying content: %w", err)
	}
	return dest.Close()
}

// CopyTree recursively copies a directory to destPath. Symlinks and
// other irregular entries are skipped rather than followed; ignored
// paths are skipped entirely.
func (m *OSFilesystemManager) CopyTree(srcPath, destPath string) error {
	matcher := m.treeMatcher(srcPath)
	return filepath.WalkDir(srcPath, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcPath, p)
		if err != nil {
			return fmt.Errorf("resolving relative path: %w", err)
		}
		if rel != "." && matcher != nil && matcher.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(destPath, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return m.CopyFile(p, target)
	})
}

// ListDir returns the children of a directory.
func (m *OSFilesystemManager) ListDir(path string) ([]gate.FileEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	out := make([]gate.FileEntry, 0, len(entries))
	for _, entry := range entries {
		fe := gate.FileEntry{Name: entry.Name(), IsDir: entry.IsDir()}
		if info, err := entry.Info(); err == nil && !entry.IsDir() {
			fe.Size = info.Size()
		}
		out = append(out, fe)
	}
	return out, nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path)
	}
	return os.Open(path)
}

// Archive writes a tar stream of the directory rooted at srcDir. Entry
// names are relative to srcDir; irregular entries are skipped.
func (m *OSFilesystemManager) Archive(srcDir string, w io.Writer) error {
	tw := tar.NewWriter(w)
	matcher := m.treeMatcher(srcDir)

	err := filepath.WalkDir(srcDir, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return fmt.Errorf("resolving relative path: %w", err)
		}
		if rel == "." {
			return nil
		}
		if matcher != nil && matcher.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("building tar header: %w", err)
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("writing tar header: %w", err)
		}
		if d.IsDir() {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("opening %s: %w", p, err)
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("archiving %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return tw.Close()
}

// Compile-time check that OSFilesystemManager implements gate.FilesystemManager
var _ gate.FilesystemManager = (*OSFilesystemManager)(nil)

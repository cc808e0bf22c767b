package testutil

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"devgate/internal/gate"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	IsDirectory bool
}

// MockFilesystem is an in-memory implementation of
// gate.FilesystemManager. Paths are stored slash-normalized; parent
// directories are created implicitly. Safe for concurrent use.
type MockFilesystem struct {
	mu    sync.Mutex
	files map[string]*MockFile

	// FailNext, when set, causes the next mutating call to return the
	// error and clears itself.
	FailNext error
}

// NewMockFilesystem creates an empty mock filesystem.
func NewMockFilesystem() *MockFilesystem {
	return &MockFilesystem{files: make(map[string]*MockFile)}
}

func normalize(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// AddFile seeds a file with the given content.
func (m *MockFilesystem) AddFile(p string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addFileLocked(normalize(p), content)
}

// AddDir seeds an empty directory.
func (m *MockFilesystem) AddDir(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addDirLocked(normalize(p))
}

func (m *MockFilesystem) addFileLocked(p string, content []byte) {
	m.addDirLocked(path.Dir(p))
	m.files[p] = &MockFile{Content: append([]byte{}, content...)}
}

func (m *MockFilesystem) addDirLocked(p string) {
	for p != "/" && p != "." && p != "" {
		if f, ok := m.files[p]; !ok || !f.IsDirectory {
			m.files[p] = &MockFile{IsDirectory: true}
		}
		p = path.Dir(p)
	}
}

func (m *MockFilesystem) takeFailure() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

func (m *MockFilesystem) Exists(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[normalize(p)]
	return ok
}

func (m *MockFilesystem) IsDir(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[normalize(p)]
	return ok && f.IsDirectory
}

func (m *MockFilesystem) EnsureDir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.addDirLocked(normalize(p))
	return nil
}

func (m *MockFilesystem) WriteFile(p string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.addFileLocked(normalize(p), content)
	return nil
}

func (m *MockFilesystem) RemovePath(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	target := normalize(p)
	for existing := range m.files {
		if existing == target || strings.HasPrefix(existing, target+"/") {
			delete(m.files, existing)
		}
	}
	return nil
}

func (m *MockFilesystem) CopyFile(srcPath, destPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	src, ok := m.files[normalize(srcPath)]
	if !ok || src.IsDirectory {
		return fmt.Errorf("source file not found: %s", srcPath)
	}
	m.addFileLocked(normalize(destPath), src.Content)
	return nil
}

func (m *MockFilesystem) CopyTree(srcPath, destPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	src := normalize(srcPath)
	dest := normalize(destPath)
	root, ok := m.files[src]
	if !ok || !root.IsDirectory {
		return fmt.Errorf("source directory not found: %s", srcPath)
	}

	m.addDirLocked(dest)
	for existing, f := range m.files {
		if !strings.HasPrefix(existing, src+"/") {
			continue
		}
		target := dest + strings.TrimPrefix(existing, src)
		if f.IsDirectory {
			m.addDirLocked(target)
		} else {
			m.addFileLocked(target, f.Content)
		}
	}
	return nil
}

func (m *MockFilesystem) ListDir(p string) ([]gate.FileEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir := normalize(p)
	root, ok := m.files[dir]
	if !ok || !root.IsDirectory {
		return nil, fmt.Errorf("directory not found: %s", p)
	}

	var entries []gate.FileEntry
	for existing, f := range m.files {
		if path.Dir(existing) != dir || existing == dir {
			continue
		}
		entries = append(entries, gate.FileEntry{
			Name:  path.Base(existing),
			IsDir: f.IsDirectory,
			Size:  int64(len(f.Content)),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *MockFilesystem) Open(p string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[normalize(p)]
	if !ok || f.IsDirectory {
		return nil, fmt.Errorf("file not found: %s", p)
	}
	return io.NopCloser(bytes.NewReader(f.Content)), nil
}

func (m *MockFilesystem) Archive(srcDir string, w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	src := normalize(srcDir)
	root, ok := m.files[src]
	if !ok || !root.IsDirectory {
		return fmt.Errorf("source directory not found: %s", srcDir)
	}

	var names []string
	for existing, f := range m.files {
		if strings.HasPrefix(existing, src+"/") && !f.IsDirectory {
			names = append(names, existing)
		}
	}
	sort.Strings(names)

	tw := tar.NewWriter(w)
	for _, name := range names {
		f := m.files[name]
		header := &tar.Header{
			Name: strings.TrimPrefix(name, src+"/"),
			Mode: 0644,
			Size: int64(len(f.Content)),
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if _, err := tw.Write(f.Content); err != nil {
			return err
		}
	}
	return tw.Close()
}

var _ gate.FilesystemManager = (*MockFilesystem)(nil)

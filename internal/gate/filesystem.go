package gate

import "io"

// FileEntry describes one child of a listed directory.
type FileEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"isDir"`
	Size  int64  `json:"size"`
}

// FilesystemManager abstracts the host filesystem operations the
// executor and backup runner need, so tests run against an in-memory
// fake instead of the real disk.
type FilesystemManager interface {
	// Exists reports whether path exists.
	Exists(path string) bool

	// IsDir reports whether path exists and is a directory.
	IsDir(path string) bool

	// EnsureDir creates the directory and any missing parents.
	EnsureDir(path string) error

	// WriteFile writes content to path, creating parent directories.
	WriteFile(path string, content []byte) error

	// RemovePath deletes a file or directory tree. Missing paths are not
	// an error.
	RemovePath(path string) error

	// CopyFile copies a single file to destPath.
	CopyFile(srcPath, destPath string) error

	// CopyTree recursively copies a directory to destPath.
	CopyTree(srcPath, destPath string) error

	// ListDir returns the children of a directory.
	ListDir(path string) ([]FileEntry, error)

	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// Archive writes a tar stream of the directory rooted at srcDir.
	Archive(srcDir string, w io.Writer) error
}

package gate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// deviceSharedPrefixes are the only remote-device locations mutating
// operations may touch: Android shared storage under either alias.
var deviceSharedPrefixes = []string{"/sdcard/", "/storage/emulated/0/"}

// PathPolicy is the allow-list policy for mutating file operations.
// Host paths must resolve inside one of the allow-listed roots; device
// paths must sit under a shared-storage prefix.
type PathPolicy struct {
	hostRoots []string
}

// NewPathPolicy builds the policy from the operator's home and
// documents directories plus any extra configured roots.
func NewPathPolicy(extraRoots ...string) (*PathPolicy, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}

	roots := []string{home, filepath.Join(home, "Documents")}
	roots = append(roots, extraRoots...)

	canonical := make([]string, 0, len(roots))
	for _, root := range roots {
		canonical = append(canonical, canonicalPath(root))
	}
	return &PathPolicy{hostRoots: canonical}, nil
}

// NewPathPolicyWithRoots builds a policy from explicit roots only.
// Used by tests and by configurations that replace the defaults.
func NewPathPolicyWithRoots(roots ...string) *PathPolicy {
	canonical := make([]string, 0, len(roots))
	for _, root := range roots {
		canonical = append(canonical, canonicalPath(root))
	}
	return &PathPolicy{hostRoots: canonical}
}

// HostPathAllowed reports whether target resolves inside an
// allow-listed root. Containment is decided on canonical resolved
// paths, not raw string prefixes, so `..` segments and symlinks cannot
// escape a root.
func (p *PathPolicy) HostPathAllowed(target string) bool {
	if strings.TrimSpace(target) == "" {
		return false
	}
	resolved := canonicalPath(target)
	for _, root := range p.hostRoots {
		if pathInside(root, resolved) {
			return true
		}
	}
	return false
}

// DevicePathAllowed reports whether a remote path sits under one of the
// shared-storage prefixes.
func (p *PathPolicy) DevicePathAllowed(remotePath string) bool {
	normalized := NormalizeDevicePath(remotePath)
	for _, prefix := range deviceSharedPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}

// NormalizeDevicePath trims a remote path and converts backslashes to
// forward slashes; the bridge only speaks POSIX paths.
func NormalizeDevicePath(remotePath string) string {
	return strings.ReplaceAll(strings.TrimSpace(remotePath), "\\", "/")
}

// canonicalPath resolves a path to its absolute, symlink-free form.
// Paths that do not exist yet resolve through their deepest existing
// ancestor so that a link inside an allowed root cannot smuggle a
// target outside it.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}

	// Walk up to the nearest existing ancestor, resolve that, and
	// re-attach the non-existent suffix.
	dir, base := filepath.Split(filepath.Clean(abs))
	dir = strings.TrimSuffix(dir, string(filepath.Separator))
	if dir == "" || dir == abs {
		return filepath.Clean(abs)
	}
	return filepath.Join(canonicalPath(dir), base)
}

// pathInside reports whether candidate equals base or sits beneath it.
func pathInside(base, candidate string) bool {
	rel, err := filepath.Rel(base, candidate)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

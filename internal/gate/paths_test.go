package gate_test

import (
	"os"
	"path/filepath"
	"testing"

	"devgate/internal/gate"
)

func TestPathPolicy_HostPathAllowed(t *testing.T) {
	root := t.TempDir()
	policy := gate.NewPathPolicyWithRoots(root)

	t.Run("allows paths inside a root", func(t *testing.T) {
		for _, target := range []string{
			root,
			filepath.Join(root, "notes.txt"),
			filepath.Join(root, "deep", "nested", "dir"),
		} {
			if !policy.HostPathAllowed(target) {
				t.Errorf("HostPathAllowed(%q) = false, want true", target)
			}
		}
	})

	t.Run("rejects paths outside every root", func(t *testing.T) {
		for _, target := range []string{
			"",
			"   ",
			"/etc/passwd",
			filepath.Dir(root),
			filepath.Join(root, "..", "sibling"),
		} {
			if policy.HostPathAllowed(target) {
				t.Errorf("HostPathAllowed(%q) = true, want false", target)
			}
		}
	})

	t.Run("rejects traversal escaping a root", func(t *testing.T) {
		target := filepath.Join(root, "sub", "..", "..", "escape.txt")
		if policy.HostPathAllowed(target) {
			t.Error("traversal through .. escaped the allow-list")
		}
	})

	t.Run("resolves symlinks before deciding", func(t *testing.T) {
		outside := t.TempDir()
		link := filepath.Join(root, "link")
		if err := os.Symlink(outside, link); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}
		if policy.HostPathAllowed(filepath.Join(link, "secret.txt")) {
			t.Error("symlink inside a root smuggled a target outside it")
		}
	})
}

func TestPathPolicy_DevicePathAllowed(t *testing.T) {
	policy := gate.NewPathPolicyWithRoots(t.TempDir())

	tests := []struct {
		path string
		want bool
	}{
		{"/sdcard/Download/file.txt", true},
		{"/storage/emulated/0/DCIM", true},
		{"  /sdcard/notes.txt ", true},
		{"\\sdcard\\Download", true},
		{"/sdcard", false},
		{"/data/secret", false},
		{"//data/secret", false},
		{"/system/build.prop", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := policy.DevicePathAllowed(tt.path); got != tt.want {
			t.Errorf("DevicePathAllowed(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestNormalizeDevicePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" /sdcard/file.txt ", "/sdcard/file.txt"},
		{"\\sdcard\\Download\\x", "/sdcard/Download/x"},
		{"/storage/emulated/0/", "/storage/emulated/0/"},
	}
	for _, tt := range tests {
		if got := gate.NormalizeDevicePath(tt.in); got != tt.want {
			t.Errorf("NormalizeDevicePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

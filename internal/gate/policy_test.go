package gate_test

import (
	"testing"
	"time"

	"devgate/internal/gate"
)

func TestParseAccessProfile(t *testing.T) {
	tests := []struct {
		raw  string
		want gate.AccessProfile
	}{
		{"standard", gate.ProfileStandard},
		{"  Standard ", gate.ProfileStandard},
		{"developer", gate.ProfileDeveloper},
		{"DEVELOPER", gate.ProfileDeveloper},
		{"", gate.ProfileDeveloper},
		{"superuser", gate.ProfileDeveloper},
	}
	for _, tt := range tests {
		if got := gate.ParseAccessProfile(tt.raw); got != tt.want {
			t.Errorf("ParseAccessProfile(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestScopesForProfile(t *testing.T) {
	t.Run("standard excludes mutation scopes", func(t *testing.T) {
		scopes := gate.ScopesForProfile(gate.ProfileStandard)
		if len(scopes) != 2 {
			t.Fatalf("got %d scopes, want 2: %v", len(scopes), scopes)
		}
		for _, s := range scopes {
			if s == gate.ScopeModifyFiles || s == gate.ScopeRunBackups {
				t.Errorf("standard profile includes %s", s)
			}
		}
	})

	t.Run("developer covers all capabilities", func(t *testing.T) {
		scopes := gate.ScopesForProfile(gate.ProfileDeveloper)
		want := map[gate.Scope]bool{
			gate.ScopeReadDeviceInfo: false,
			gate.ScopeListFiles:      false,
			gate.ScopeModifyFiles:    false,
			gate.ScopeBrowserExport:  false,
			gate.ScopeRunBackups:     false,
		}
		for _, s := range scopes {
			want[s] = true
		}
		for s, seen := range want {
			if !seen {
				t.Errorf("developer profile missing %s", s)
			}
		}
	})

	t.Run("returns a copy", func(t *testing.T) {
		scopes := gate.ScopesForProfile(gate.ProfileStandard)
		scopes[0] = "tampered"
		if again := gate.ScopesForProfile(gate.ProfileStandard); again[0] == "tampered" {
			t.Error("ScopesForProfile exposes shared backing array")
		}
	})
}

func TestHasScope(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	standard := &gate.AccessGrant{
		DeviceType:    "android",
		DeviceID:      "serial-1",
		GrantedAt:     now,
		AccessProfile: gate.ProfileStandard,
		Scopes:        gate.ScopesForProfile(gate.ProfileStandard),
	}
	wildcard := &gate.AccessGrant{
		DeviceType:    "android",
		DeviceID:      "serial-2",
		GrantedAt:     now,
		AccessProfile: gate.ProfileDeveloper,
		Scopes:        []gate.Scope{gate.ScopeAny},
	}

	t.Run("empty requirement always passes", func(t *testing.T) {
		if !gate.HasScope(standard, "") {
			t.Error("empty requirement must pass")
		}
	})

	t.Run("standard grant lacks modify-files", func(t *testing.T) {
		if !gate.HasScope(standard, gate.ScopeListFiles) {
			t.Error("standard grant must cover list-accessible-files")
		}
		if gate.HasScope(standard, gate.ScopeModifyFiles) {
			t.Error("standard grant must not cover modify-files")
		}
	})

	t.Run("wildcard covers everything", func(t *testing.T) {
		for _, s := range []gate.Scope{gate.ScopeReadDeviceInfo, gate.ScopeModifyFiles, gate.ScopeRunBackups} {
			if !gate.HasScope(wildcard, s) {
				t.Errorf("wildcard grant must cover %s", s)
			}
		}
	})

	t.Run("legacy grant falls back to developer scopes", func(t *testing.T) {
		legacy := &gate.AccessGrant{DeviceType: "android", DeviceID: "old", GrantedAt: now}
		if !gate.HasScope(legacy, gate.ScopeModifyFiles) {
			t.Error("legacy grant must cover modify-files via developer fallback")
		}
	})
}

package gate

import "strings"

// Scope names a single capability gating one class of operation.
type Scope string

const (
	ScopeReadDeviceInfo Scope = "read-device-info"
	ScopeListFiles      Scope = "list-accessible-files"
	ScopeModifyFiles    Scope = "modify-files"
	ScopeBrowserExport  Scope = "browser-export"
	ScopeRunBackups     Scope = "run-backups"

	// ScopeAny matches every required scope when present in a grant.
	ScopeAny Scope = "*"
)

// AccessProfile names a fixed bundle of scopes an owner can grant.
type AccessProfile string

const (
	ProfileStandard  AccessProfile = "standard"
	ProfileDeveloper AccessProfile = "developer"

	defaultAccessProfile = ProfileDeveloper
)

// profileScopes is the closed profile-to-scope table. Adding a
// capability means extending this table, never inferring at runtime.
var profileScopes = map[AccessProfile][]Scope{
	ProfileStandard: {
		ScopeReadDeviceInfo,
		ScopeListFiles,
	},
	ProfileDeveloper: {
		ScopeReadDeviceInfo,
		ScopeListFiles,
		ScopeModifyFiles,
		ScopeBrowserExport,
		ScopeRunBackups,
	},
}

// ParseAccessProfile normalizes a raw profile name, falling back to the
// developer profile for unknown or empty input.
func ParseAccessProfile(raw string) AccessProfile {
	switch AccessProfile(strings.ToLower(strings.TrimSpace(raw))) {
	case ProfileStandard:
		return ProfileStandard
	case ProfileDeveloper:
		return ProfileDeveloper
	default:
		return defaultAccessProfile
	}
}

// ScopesForProfile returns a copy of the scope set for a profile.
func ScopesForProfile(profile AccessProfile) []Scope {
	src, ok := profileScopes[profile]
	if !ok {
		src = profileScopes[defaultAccessProfile]
	}
	out := make([]Scope, len(src))
	copy(out, src)
	return out
}

// HasScope reports whether the grant covers the required scope. An
// empty requirement always passes. Grants may carry the wildcard scope.
func HasScope(grant *AccessGrant, required Scope) bool {
	if strings.TrimSpace(string(required)) == "" {
		return true
	}
	for _, s := range grant.EffectiveScopes() {
		if s == ScopeAny || s == required {
			return true
		}
	}
	return false
}

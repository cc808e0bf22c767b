package gate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// consentRequestWindow is how long the owner has to enter the code
	// before a pending request expires. Independent of grant duration.
	consentRequestWindow = 30 * time.Minute

	consentMinutesDefault = 120
	consentMinutesMin     = 10
	consentMinutesMax     = 30 * 24 * 60 // 30 days
)

// supportedDeviceTypes are the endpoint classes the control plane
// mediates: the local host ("windows") and bridged Android devices.
var supportedDeviceTypes = map[string]bool{
	"android": true,
	"windows": true,
}

// ConsentRequest is a pending, time-boxed offer of access awaiting the
// owner's out-of-band code entry. Only the code's hash is stored.
type ConsentRequest struct {
	RequestID        string        `json:"requestId"`
	DeviceType       string        `json:"deviceType"`
	DeviceID         string        `json:"deviceId"`
	OwnerName        string        `json:"ownerName"`
	AccessProfile    AccessProfile `json:"accessProfile"`
	Scopes           []Scope       `json:"scopes"`
	PersistentAccess bool          `json:"persistentAccess"`
	CodeHash         string        `json:"codeHash"`
	CreatedAt        time.Time     `json:"createdAt"`
	RequestExpiresAt time.Time     `json:"requestExpiresAt"`
	GrantExpiresAt   *time.Time    `json:"grantExpiresAt"`
	DurationMinutes  int           `json:"durationMinutes"`
}

// AccessGrant is the confirmed, currently-active authorization for one
// device. At most one grant exists per device key; confirming a new
// request for the same device replaces the prior grant.
type AccessGrant struct {
	DeviceType       string        `json:"deviceType"`
	DeviceID         string        `json:"deviceId"`
	OwnerName        string        `json:"ownerName"`
	GrantedAt        time.Time     `json:"grantedAt"`
	ExpiresAt        *time.Time    `json:"expiresAt"`
	PersistentAccess bool          `json:"persistentAccess"`
	AccessProfile    AccessProfile `json:"accessProfile"`
	Scopes           []Scope       `json:"scopes"`
}

// Legacy reports whether the grant predates profile-based scope
// tracking. Legacy grants carry no usable scope record and fall back to
// the developer scope set.
func (g *AccessGrant) Legacy() bool {
	return g.AccessProfile == "" || len(g.Scopes) == 0
}

// EffectiveScopes returns the scope set that authorization checks run
// against. For versioned grants this is exactly the recorded scopes.
func (g *AccessGrant) EffectiveScopes() []Scope {
	if g.Legacy() {
		return ScopesForProfile(defaultAccessProfile)
	}
	out := make([]Scope, len(g.Scopes))
	copy(out, g.Scopes)
	return out
}

// ExpiresLabel returns the human-readable expiry of the grant.
func (g *AccessGrant) ExpiresLabel() string {
	if g.ExpiresAt == nil {
		return "never (until revoked)"
	}
	return g.ExpiresAt.Format(time.RFC3339)
}

// deviceAccessState is the persisted consent document.
type deviceAccessState struct {
	PendingRequests map[string]ConsentRequest `json:"pendingRequests"`
	Grants          map[string]AccessGrant    `json:"grants"`
}

// ConsentOffer is the result of requesting consent. The plaintext
// ConsentCode is returned exactly once for out-of-band delivery to the
// device owner; it cannot be retrieved again.
type ConsentOffer struct {
	Result
	RequestID        string        `json:"requestId,omitempty"`
	ConsentCode      string        `json:"consentCode,omitempty"`
	ExpiresAt        *time.Time    `json:"expiresAt,omitempty"`
	ExpiresLabel     string        `json:"expiresLabel,omitempty"`
	DurationMinutes  int           `json:"durationMinutes,omitempty"`
	PersistentAccess bool          `json:"persistentAccess"`
	AccessProfile    AccessProfile `json:"accessProfile,omitempty"`
	Scopes           []Scope       `json:"scopes,omitempty"`
}

// ConsentDecision is the result of confirming a pending request.
type ConsentDecision struct {
	Result
	DeviceType       string        `json:"deviceType,omitempty"`
	DeviceID         string        `json:"deviceId,omitempty"`
	ExpiresAt        *time.Time    `json:"expiresAt,omitempty"`
	ExpiresLabel     string        `json:"expiresLabel,omitempty"`
	PersistentAccess bool          `json:"persistentAccess"`
	AccessProfile    AccessProfile `json:"accessProfile,omitempty"`
	Scopes           []Scope       `json:"scopes,omitempty"`
}

// ConsentManager owns the persisted store of pending consent requests
// and active access grants. Expired entries are pruned lazily at the
// start of every store read; there is no background sweep.
type ConsentManager struct {
	store  DocumentStore
	clock  Clock
	idgen  IDGenerator
	codes  CodeGenerator
	logger Logger

	mu sync.Mutex // serializes read-modify-write of the consent document
}

// NewConsentManager creates a ConsentManager with the given dependencies.
func NewConsentManager(store DocumentStore, clock Clock, idgen IDGenerator, codes CodeGenerator, logger Logger) *ConsentManager {
	return &ConsentManager{store: store, clock: clock, idgen: idgen, codes: codes, logger: logger}
}

// DeviceKey returns the case-insensitive store key for a device.
func DeviceKey(deviceType, deviceID string) string {
	return strings.ToLower(deviceType) + ":" + strings.ToLower(deviceID)
}

// Request opens a consent handshake for a device. durationMinutes is
// clamped into [10, 43200] and ignored entirely for persistent access.
func (m *ConsentManager) Request(deviceType, deviceID, ownerName string, durationMinutes int, profile string, persistent bool) ConsentOffer {
	deviceType = strings.ToLower(strings.TrimSpace(deviceType))
	deviceID = strings.TrimSpace(deviceID)
	ownerName = strings.TrimSpace(ownerName)
	if ownerName == "" {
		ownerName = "Device Owner"
	}

	if !supportedDeviceTypes[deviceType] {
		return ConsentOffer{Result: Failf(CodeValidation, "Unsupported device type.")}
	}
	if deviceID == "" {
		return ConsentOffer{Result: Failf(CodeValidation, "Device id is required.")}
	}

	accessProfile := ParseAccessProfile(profile)
	scopes := ScopesForProfile(accessProfile)
	minutes := clampConsentMinutes(durationMinutes)

	now := m.clock.Now()
	var grantExpiresAt *time.Time
	if !persistent {
		t := now.Add(time.Duration(minutes) * time.Minute)
		grantExpiresAt = &t
	}

	code := m.codes.Code()
	request := ConsentRequest{
		RequestID:        m.idgen.New(),
		DeviceType:       deviceType,
		DeviceID:         deviceID,
		OwnerName:        ownerName,
		AccessProfile:    accessProfile,
		Scopes:           scopes,
		PersistentAccess: persistent,
		CodeHash:         hashConsentCode(code),
		CreatedAt:        now,
		RequestExpiresAt: now.Add(consentRequestWindow),
		GrantExpiresAt:   grantExpiresAt,
		DurationMinutes:  minutes,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.loadPruned()
	if err != nil {
		return ConsentOffer{Result: storeFailure(err)}
	}
	state.PendingRequests[request.RequestID] = request
	if err := m.store.Write(DocDeviceAccess, state); err != nil {
		return ConsentOffer{Result: storeFailure(err)}
	}

	m.logger.Info("consent requested",
		"device", DeviceKey(deviceType, deviceID),
		"profile", accessProfile,
		"persistent", persistent)

	return ConsentOffer{
		Result:           Okf("Owner consent code generated for %s:%s.", deviceType, deviceID),
		RequestID:        request.RequestID,
		ConsentCode:      code,
		ExpiresAt:        grantExpiresAt,
		ExpiresLabel:     expiresLabel(grantExpiresAt),
		DurationMinutes:  minutes,
		PersistentAccess: persistent,
		AccessProfile:    accessProfile,
		Scopes:           scopes,
	}
}

// Confirm converts a pending request into an active grant. A request
// confirms at most once; confirming replaces any existing grant for the
// same device key (last confirm wins, no scope merge).
func (m *ConsentManager) Confirm(requestID, consentCode string) ConsentDecision {
	requestID = strings.TrimSpace(requestID)
	consentCode = strings.TrimSpace(consentCode)
	if requestID == "" || consentCode == "" {
		return ConsentDecision{Result: Failf(CodeValidation, "Request id and consent code are required.")}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.loadPruned()
	if err != nil {
		return ConsentDecision{Result: storeFailure(err)}
	}

	pending, ok := state.PendingRequests[requestID]
	if !ok {
		return ConsentDecision{Result: Failf(CodeNotFound, "Consent request not found or expired.")}
	}
	if hashConsentCode(consentCode) != pending.CodeHash {
		return ConsentDecision{Result: Failf(CodeAuthFailed, "Consent code is invalid.")}
	}

	grant := AccessGrant{
		DeviceType:       pending.DeviceType,
		DeviceID:         pending.DeviceID,
		OwnerName:        pending.OwnerName,
		GrantedAt:        m.clock.Now(),
		ExpiresAt:        pending.GrantExpiresAt,
		PersistentAccess: pending.PersistentAccess,
		AccessProfile:    pending.AccessProfile,
		Scopes:           pending.Scopes,
	}
	state.Grants[DeviceKey(pending.DeviceType, pending.DeviceID)] = grant
	delete(state.PendingRequests, requestID)
	if err := m.store.Write(DocDeviceAccess, state); err != nil {
		return ConsentDecision{Result: storeFailure(err)}
	}

	m.logger.Info("consent granted",
		"device", DeviceKey(pending.DeviceType, pending.DeviceID),
		"owner", pending.OwnerName,
		"expires", expiresLabel(pending.GrantExpiresAt))

	return ConsentDecision{
		Result:           Okf("Access granted by %s for %s:%s.", pending.OwnerName, pending.DeviceType, pending.DeviceID),
		DeviceType:       pending.DeviceType,
		DeviceID:         pending.DeviceID,
		ExpiresAt:        pending.GrantExpiresAt,
		ExpiresLabel:     expiresLabel(pending.GrantExpiresAt),
		PersistentAccess: pending.PersistentAccess,
		AccessProfile:    pending.AccessProfile,
		Scopes:           grant.EffectiveScopes(),
	}
}

// Revoke deletes the grant for a device immediately and unconditionally.
// Revocation never requires the secret code.
func (m *ConsentManager) Revoke(deviceType, deviceID string) Result {
	key := DeviceKey(deviceType, deviceID)

	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.loadPruned()
	if err != nil {
		return storeFailure(err)
	}
	if _, ok := state.Grants[key]; !ok {
		return Failf(CodeNotFound, "No active consent found for this device.")
	}
	delete(state.Grants, key)
	if err := m.store.Write(DocDeviceAccess, state); err != nil {
		return storeFailure(err)
	}

	m.logger.Info("consent revoked", "device", key)
	return Okf("Access revoked for %s.", key)
}

// Get returns the live grant for a device, or nil when none exists.
// Reading prunes expired requests and grants as a side effect.
func (m *ConsentManager) Get(deviceType, deviceID string) (*AccessGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.loadPruned()
	if err != nil {
		return nil, err
	}
	grant, ok := state.Grants[DeviceKey(deviceType, deviceID)]
	if !ok {
		return nil, nil
	}
	// Legacy records may miss the persistent flag; a grant without an
	// expiry is persistent by definition.
	grant.PersistentAccess = grant.PersistentAccess || grant.ExpiresAt == nil
	grant.AccessProfile = ParseAccessProfile(string(grant.AccessProfile))
	return &grant, nil
}

// List returns all live grants sorted by device key.
func (m *ConsentManager) List() ([]AccessGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.loadPruned()
	if err != nil {
		return nil, err
	}

	grants := make([]AccessGrant, 0, len(state.Grants))
	for _, grant := range state.Grants {
		grant.PersistentAccess = grant.PersistentAccess || grant.ExpiresAt == nil
		grant.AccessProfile = ParseAccessProfile(string(grant.AccessProfile))
		grant.Scopes = grant.EffectiveScopes()
		grants = append(grants, grant)
	}
	sortGrants(grants)
	return grants, nil
}

// loadPruned reads the consent document, drops expired entries, and
// persists the pruned view so expiry is effectively instantaneous for
// every caller. Callers must hold m.mu.
func (m *ConsentManager) loadPruned() (*deviceAccessState, error) {
	state := &deviceAccessState{
		PendingRequests: make(map[string]ConsentRequest),
		Grants:          make(map[string]AccessGrant),
	}

	var stored deviceAccessState
	found, err := m.store.Read(DocDeviceAccess, &stored)
	if err != nil {
		return nil, fmt.Errorf("reading consent state: %w", err)
	}

	now := m.clock.Now()
	pruned := 0
	if found {
		for id, request := range stored.PendingRequests {
			if request.RequestExpiresAt.After(now) {
				state.PendingRequests[id] = request
			} else {
				pruned++
			}
		}
		for key, grant := range stored.Grants {
			if grant.ExpiresAt == nil || grant.ExpiresAt.After(now) {
				state.Grants[key] = grant
			} else {
				pruned++
			}
		}
	}

	if pruned > 0 {
		m.logger.Debug("pruned expired consent entries", "count", pruned)
	}
	if err := m.store.Write(DocDeviceAccess, state); err != nil {
		return nil, fmt.Errorf("writing pruned consent state: %w", err)
	}
	return state, nil
}

func clampConsentMinutes(minutes int) int {
	if minutes <= 0 {
		return consentMinutesDefault
	}
	if minutes < consentMinutesMin {
		return consentMinutesMin
	}
	if minutes > consentMinutesMax {
		return consentMinutesMax
	}
	return minutes
}

// hashConsentCode hashes the short-lived consent code. SHA-256 without
// stretching is acceptable here: the code expires within 30 minutes and
// only its hash ever touches the store.
func hashConsentCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func expiresLabel(expiresAt *time.Time) string {
	if expiresAt == nil {
		return "never (until revoked)"
	}
	return expiresAt.Format(time.RFC3339)
}

func sortGrants(grants []AccessGrant) {
	sort.Slice(grants, func(i, j int) bool {
		return DeviceKey(grants[i].DeviceType, grants[i].DeviceID) < DeviceKey(grants[j].DeviceType, grants[j].DeviceID)
	})
}

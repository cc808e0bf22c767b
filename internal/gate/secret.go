package gate

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"regexp"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// Factory-default secret code, replaced on first rotation. Matches the
// code printed on the quick-start card shipped with the app.
const defaultSecretCode = "621956"

const (
	secretHashIterations = 150_000
	secretHashLength     = 64
	secretSaltLength     = 16
)

var numericCodePattern = regexp.MustCompile(`^[0-9]{4,12}$`)

// SecretCredential is the persisted salted-hash record. The plaintext
// code is never stored; the hash cannot be computed without the salt.
type SecretCredential struct {
	Salt      string    `json:"salt"`
	Hash      string    `json:"hash"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SecretGate validates and rotates the numeric secret code that gates
// privileged operations. It holds no in-memory credential state: the
// credential document is re-read on every check.
type SecretGate struct {
	store DocumentStore
	clock Clock

	mu sync.Mutex // serializes read-modify-write of the credential document
}

// NewSecretGate creates a SecretGate backed by the given store.
func NewSecretGate(store DocumentStore, clock Clock) *SecretGate {
	return &SecretGate{store: store, clock: clock}
}

// Initialize seeds the credential from the factory-default code if no
// credential exists yet. Idempotent: an existing credential is kept.
func (g *SecretGate) Initialize() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var cred SecretCredential
	found, err := g.store.Read(DocSecretCredential, &cred)
	if err != nil {
		return fmt.Errorf("reading credential: %w", err)
	}
	if found && cred.Salt != "" && cred.Hash != "" {
		return nil
	}

	seed, err := g.deriveCredential(defaultSecretCode)
	if err != nil {
		return err
	}
	if err := g.store.Write(DocSecretCredential, seed); err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}
	return nil
}

// Validate reports whether candidate matches the stored secret code.
// Fails closed: a malformed candidate or a missing credential is false.
func (g *SecretGate) Validate(candidate string) bool {
	if !numericCodePattern.MatchString(candidate) {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var cred SecretCredential
	found, err := g.store.Read(DocSecretCredential, &cred)
	if err != nil || !found || cred.Salt == "" || cred.Hash == "" {
		return false
	}

	candidateHash := hashSecretCode(candidate, cred.Salt)
	// Constant-time comparison: a short-circuiting string compare would
	// leak hash prefix length through timing.
	return subtle.ConstantTimeCompare([]byte(candidateHash), []byte(cred.Hash)) == 1
}

// Rotate replaces the secret code. The current code must validate and
// the new code must be numeric, 4-12 digits. No side effects on failure.
func (g *SecretGate) Rotate(currentCode, newCode string) Result {
	if !g.Validate(currentCode) {
		return Failf(CodeAuthFailed, "Current code is invalid.")
	}
	if !numericCodePattern.MatchString(newCode) {
		return Failf(CodeValidation, "New code must be numeric and 4-12 digits.")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	cred, err := g.deriveCredential(newCode)
	if err != nil {
		return Failf(CodeBackendError, "deriving credential: %v", err)
	}
	if err := g.store.Write(DocSecretCredential, cred); err != nil {
		return storeFailure(err)
	}
	return Okf("Secret code updated.")
}

// deriveCredential hashes code with a fresh random salt.
func (g *SecretGate) deriveCredential(code string) (SecretCredential, error) {
	salt := make([]byte, secretSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return SecretCredential{}, fmt.Errorf("generating salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)
	return SecretCredential{
		Salt:      saltHex,
		Hash:      hashSecretCode(code, saltHex),
		UpdatedAt: g.clock.Now(),
	}, nil
}

// hashSecretCode derives the slow one-way hash of code under salt.
func hashSecretCode(code, salt string) string {
	key := pbkdf2.Key([]byte(code), []byte(salt), secretHashIterations, secretHashLength, sha512.New)
	return hex.EncodeToString(key)
}

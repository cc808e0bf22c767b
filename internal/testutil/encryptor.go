package testutil

import (
	"devgate/internal/encryption"
	"devgate/internal/gate"
)

// NewTestEncryptor creates a deterministic encryptor for tests.
func NewTestEncryptor() gate.Encryptor {
	return encryption.NewTestEncryptor()
}

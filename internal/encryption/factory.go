package encryption

import (
	"fmt"

	"devgate/internal/config"
	"devgate/internal/gate"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration
// type. Type "none" returns nil: backups are then stored in plaintext.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (gate.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}

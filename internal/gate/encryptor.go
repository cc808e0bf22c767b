package gate

import "io"

// Encryptor seals backup archives at rest. Encryption uses the public
// key only, so scheduled jobs never need operator interaction.
type Encryptor interface {
	// Setup performs one-time key generation during `devgate config init`.
	// The private key is encrypted with the provided passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// IsConfigured reports whether key material exists. Unconfigured
	// encryptors cause archives to be stored in plaintext.
	IsConfigured() bool
}

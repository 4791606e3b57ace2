package testutil

import (
	"codevault/internal/encryption"
)

// NewTestEncryptor creates a deterministic, crypto-free encryptor for testing.
func NewTestEncryptor() *encryption.TestEncryptor {
	return encryption.NewTestEncryptor()
}

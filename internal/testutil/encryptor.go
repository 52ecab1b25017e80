package testutil

import (
	"berthplan/internal/berth"
	"berthplan/internal/encryption"
)

// NewTestEncryptor creates a deterministic encryptor for testing.
func NewTestEncryptor() berth.Encryptor {
	return encryption.NewTestEncryptor()
}

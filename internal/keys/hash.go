package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// keyPrefix makes issued keys recognizable in logs and support tickets.
// It carries no security weight.
const keyPrefix = "key_live_"

// HashKey returns the hex-encoded SHA-256 digest of a plaintext API key.
// The transform is deterministic and unsalted: lookup by hash must work
// without any per-key state.
func HashKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// GenerateKey returns a new plaintext API key: the fixed prefix followed
// by 24 cryptographically random bytes in hex.
func GenerateKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return keyPrefix + hex.EncodeToString(b), nil
}

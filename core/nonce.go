package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NonceBytes is the entropy of a challenge nonce. 16 bytes is the floor for
// collision resistance within a TTL window; we use double that.
const NonceBytes = 32

// GenerateNonce returns a hex-encoded random nonce from a cryptographically
// secure source. Uniqueness comes from entropy alone; the challenge store
// treats the (practically impossible) collision as an overwrite.
func GenerateNonce() (string, error) {
	buf := make([]byte, NonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

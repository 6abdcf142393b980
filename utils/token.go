package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateSecureToken returns 32 random bytes, hex encoded. Used for
// unsubscribe links.
func GenerateSecureToken() (string, error) {
	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return hex.EncodeToString(token), nil
}

package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenSize is the default entropy of opaque tokens: 32 bytes = 256 bits.
const TokenSize = 32

// RandomToken returns size random bytes, base64url encoded without padding.
func RandomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("utils: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

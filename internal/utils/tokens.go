package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateToken returns an opaque, URL-safe, cryptographically random
// token. 32 bytes of entropy makes collisions and guessing negligible
// over the lifetime of the system.
func GenerateToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; if it does,
		// issuing a guessable token would be worse than crashing.
		panic("crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

package auth

import (
	"crypto/sha256"
	"encoding/base64"
)

// HashToken derives a stable, non-reversible key from an encoded token.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

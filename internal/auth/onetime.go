package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NewOneTimeToken returns a random token for email verification or password
// reset links, plus the SHA-256 digest to store. Only the hash ever touches
// the database; the plaintext is sent once by email.
func NewOneTimeToken() (token, tokenHash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}

	token = hex.EncodeToString(buf)
	return token, HashToken(token), nil
}

// HashToken digests a plaintext token the same way NewOneTimeToken does, for
// looking up a stored hash.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

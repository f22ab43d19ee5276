// Package crypto provides password hashing for stored user records.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of a generated password salt in bytes.
const SaltSize = 16

// GenerateSalt returns a random salt for HashPassword.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("crypto: generate salt: %w", err)
	}
	return salt, nil
}

// HashPassword hashes a password using Argon2id.
func HashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
}

// HashPasswordHex is HashPassword encoded as lowercase hex, the stored form.
func HashPasswordHex(password string, salt []byte) string {
	return hex.EncodeToString(HashPassword(password, salt))
}

// VerifyPassword reports whether password matches the hex hash stored for salt.
func VerifyPassword(password string, salt []byte, storedHex string) bool {
	stored, err := hex.DecodeString(storedHex)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(HashPassword(password, salt), stored) == 1
}

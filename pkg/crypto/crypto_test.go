package crypto

import (
	"bytes"
	"testing"
)

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: unexpected error: %v", err)
	}
	b, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: unexpected error: %v", err)
	}
	if len(a) != SaltSize {
		t.Fatalf("GenerateSalt: len = %d, want %d", len(a), SaltSize)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("GenerateSalt: two salts are equal")
	}
}

func TestVerifyPassword(t *testing.T) {
	salt := []byte("0123456789abcdef")
	stored := HashPasswordHex("hunter2", salt)

	if !VerifyPassword("hunter2", salt, stored) {
		t.Fatalf("VerifyPassword: correct password rejected")
	}
	if VerifyPassword("hunter3", salt, stored) {
		t.Fatalf("VerifyPassword: wrong password accepted")
	}
	if VerifyPassword("hunter2", []byte("other-salt-value"), stored) {
		t.Fatalf("VerifyPassword: wrong salt accepted")
	}
	if VerifyPassword("hunter2", salt, "not-hex") {
		t.Fatalf("VerifyPassword: malformed hash accepted")
	}
}

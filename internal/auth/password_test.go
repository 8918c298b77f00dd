package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_Format(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("expected bcrypt hash, got %s", hash)
	}
	if strings.Contains(hash, "Secret123") {
		t.Error("hash must not contain the plaintext password")
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	match, err := VerifyPassword("Secret123", hash)
	if err != nil || !match {
		t.Errorf("expected correct password to match, got match=%v err=%v", match, err)
	}

	match, err = VerifyPassword("secret123", hash)
	if err != nil {
		t.Errorf("mismatch should not be an error, got %v", err)
	}
	if match {
		t.Error("expected wrong password not to match")
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	t.Parallel()

	if _, err := VerifyPassword("Secret123", "not-a-bcrypt-hash"); err == nil {
		t.Error("expected error for malformed hash")
	}
}

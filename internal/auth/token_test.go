package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret", "expense-tracker", time.Hour)

	token, err := m.Issue("01HZXUSER")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("expected 3 JWT segments, got %d", len(parts))
	}

	userID, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "01HZXUSER" {
		t.Errorf("Verify returned %q, want %q", userID, "01HZXUSER")
	}
}

func TestTokenManager_DefaultTTL(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", "issuer", 0)
	if m.TTL() != 5*time.Hour {
		t.Errorf("TTL = %v, want 5h", m.TTL())
	}
}

func TestTokenManager_Expired(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret", "expense-tracker", 5*time.Hour)
	m.now = func() time.Time { return time.Now().Add(-6 * time.Hour) }

	token, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	m.now = time.Now
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenManager_StillValidBeforeExpiry(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret", "expense-tracker", 5*time.Hour)
	m.now = func() time.Time { return time.Now().Add(-4 * time.Hour) }

	token, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	m.now = time.Now
	if _, err := m.Verify(token); err != nil {
		t.Fatalf("expected token issued 4h ago to be valid, got %v", err)
	}
}

func TestTokenManager_Rejections(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret", "expense-tracker", time.Hour)
	other := NewTokenManager("other-secret", "expense-tracker", time.Hour)

	foreign, err := other.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	valid, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	tampered := flipSignatureChar(valid)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1",
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"tampered signature", tampered},
		{"alg none", unsigned},
		{"missing subject", noSubject},
		{"missing expiry", noExpiry},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := m.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify(%s) error = %v, want ErrInvalidToken", tt.name, err)
			}
		})
	}
}

func TestTokenManager_IssueEmptyUser(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", "issuer", time.Hour)
	if _, err := m.Issue(""); err == nil {
		t.Fatal("expected error issuing token for empty user id")
	}
}

// flipSignatureChar changes one character in the middle of the signature segment.
func flipSignatureChar(token string) string {
	idx := strings.LastIndex(token, ".") + 5
	b := []byte(token)
	if b[idx] == 'A' {
		b[idx] = 'B'
	} else {
		b[idx] = 'A'
	}
	return string(b)
}

package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"
	at, err := NewAccessToken(secret, 42, 15)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if at.Token == "" {
		t.Fatal("NewAccessToken() returned empty token")
	}

	tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			t.Fatalf("unexpected signing method %v", tk.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("parsing issued token failed: %v", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not MapClaims")
	}
	if sub, _ := claims["sub"].(float64); uint64(sub) != 42 {
		t.Errorf("sub claim = %v, want 42", claims["sub"])
	}
	if time.Until(at.Exp) > 15*time.Minute {
		t.Errorf("expiry %v further out than requested TTL", at.Exp)
	}

	if _, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	}); err == nil {
		t.Error("token verified with wrong secret")
	}
}

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken() error = %v", err)
	}
	b, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken() error = %v", err)
	}
	if len(a.Raw) != 96 {
		t.Errorf("raw token length = %d, want 96", len(a.Raw))
	}
	if a.Raw == b.Raw {
		t.Error("two refresh tokens are identical")
	}
	if !a.Exp.After(time.Now().UTC().Add(29 * 24 * time.Hour)) {
		t.Errorf("expiry %v is sooner than the requested 30 days", a.Exp)
	}

	// Hashing must be deterministic and never echo the raw value.
	h1, h2 := HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw)
	if h1 != h2 {
		t.Error("HashRefreshRaw is not deterministic")
	}
	if h1 == a.Raw || len(h1) != 64 {
		t.Errorf("unexpected hash %q", h1)
	}
}

func TestPasswordHashVerify(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !VerifyPassword(hash, "s3cret") {
		t.Error("VerifyPassword() rejected correct password")
	}
	if VerifyPassword(hash, "other") {
		t.Error("VerifyPassword() accepted wrong password")
	}
}

package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "correct horse") {
		t.Fatal("expected password to verify")
	}
	if VerifyPassword(hash, "battery staple") || VerifyPassword("", "correct horse") {
		t.Fatal("expected mismatch")
	}
}

func TestNewAccessToken(t *testing.T) {
	tok, err := NewAccessToken("secret", "admin", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(tok.Exp) < 59*time.Minute {
		t.Fatalf("unexpected expiry %s", tok.Exp)
	}
	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (any, error) { return []byte("secret"), nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("expected valid token, got %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != "admin" || claims["role"] != RoleAdmin {
		t.Fatalf("unexpected claims %v", claims)
	}
	if _, err := jwt.Parse(tok.Token, func(*jwt.Token) (any, error) { return []byte("other"), nil }); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

package utils

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateTrackingID(t *testing.T) {
	now := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	id := GenerateTrackingID(now)
	if !regexp.MustCompile(`^IA-20250309-[0-9A-F]{6}$`).MatchString(id) {
		t.Fatalf("unexpected tracking id %q", id)
	}
	if GenerateTrackingID(now) == id {
		t.Errorf("expected a different suffix on the second call")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	v := NewTokenVerifier("test-secret", "idea-arena")
	tok, err := v.GenerateToken("Alice@Example.com", "Alice", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := v.ParseToken(tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("email = %q, want lower-cased", claims.Email)
	}
}

func TestParseTokenRejects(t *testing.T) {
	v := NewTokenVerifier("test-secret", "idea-arena")

	expired, _ := v.GenerateToken("a@example.com", "", -time.Minute)
	other, _ := NewTokenVerifier("other-secret", "idea-arena").GenerateToken("a@example.com", "", time.Hour)
	wrongIssuer, _ := NewTokenVerifier("test-secret", "someone-else").GenerateToken("a@example.com", "", time.Hour)
	noEmail, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "idea-arena",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))

	cases := map[string]string{
		"expired":      expired,
		"bad-sig":      other,
		"wrong-issuer": wrongIssuer,
		"no-email":     noEmail,
		"garbage":      "not.a.token",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := v.ParseToken(tok); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

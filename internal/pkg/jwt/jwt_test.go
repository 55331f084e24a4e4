package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewService("secret", time.Minute, time.Hour)
	id := uuid.New()

	token, err := svc.GenerateAccessToken(id, "creator")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != id || claims.Role != "creator" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	token, _ := NewService("a", time.Minute, time.Hour).GenerateAccessToken(uuid.New(), "consumer")
	if _, err := NewService("b", time.Minute, time.Hour).ValidateAccessToken(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateReportsExpiry(t *testing.T) {
	svc := NewService("secret", -time.Minute, time.Hour)
	token, _ := svc.GenerateAccessToken(uuid.New(), "consumer")
	if _, err := svc.ValidateAccessToken(token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestRefreshTokensAreUniqueAndHashed(t *testing.T) {
	svc := NewService("secret", time.Minute, time.Hour)
	a, _ := svc.GenerateRefreshToken()
	b, _ := svc.GenerateRefreshToken()
	if a == b || len(a) != 64 {
		t.Fatalf("unexpected refresh tokens %q %q", a, b)
	}
	if HashRefreshToken(a) == a || HashRefreshToken(a) != HashRefreshToken(a) {
		t.Fatalf("hash must be deterministic and differ from the token")
	}
}

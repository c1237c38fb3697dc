package auth

import (
	"context"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestSessionTokenMissing(t *testing.T) {
	s := NewSession("")
	if _, err := s.Token(context.Background()); !pkgerrors.IsCode(err, pkgerrors.CodeAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestSessionTokenExpired(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	token := mintToken(t, jwt.MapClaims{
		"user_id": 42,
		"exp":     now.Add(-time.Minute).Unix(),
	})
	s := NewSession(token)
	s.now = func() time.Time { return now }

	if _, err := s.Token(context.Background()); !pkgerrors.IsCode(err, pkgerrors.CodeAuth) {
		t.Fatalf("expected auth error for expired token, got %v", err)
	}
}

func TestSessionTokenValidAndReplaced(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	token := mintToken(t, jwt.MapClaims{
		"user_id": 42,
		"exp":     now.Add(time.Hour).Unix(),
	})
	s := NewSession("")
	s.now = func() time.Time { return now }
	s.Set(token)

	got, err := s.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != token {
		t.Fatalf("unexpected token returned")
	}

	s.Clear()
	if _, err := s.Token(context.Background()); err == nil {
		t.Fatalf("expected error after clear")
	}
}

func TestOpaqueTokenPassesExpiryCheck(t *testing.T) {
	if err := CheckExpiry("opaque-token-value", time.Now()); err != nil {
		t.Fatalf("opaque tokens should not be rejected: %v", err)
	}
}

func TestUserID(t *testing.T) {
	numeric := mintToken(t, jwt.MapClaims{"user_id": 42})
	if got, err := UserID(numeric); err != nil || got != "42" {
		t.Fatalf("expected 42, got %q err=%v", got, err)
	}
	subject := mintToken(t, jwt.MapClaims{"sub": "user-abc"})
	if got, err := UserID(subject); err != nil || got != "user-abc" {
		t.Fatalf("expected subject fallback, got %q err=%v", got, err)
	}
	if _, err := UserID("opaque"); err == nil {
		t.Fatalf("expected error for opaque token")
	}
}

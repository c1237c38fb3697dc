package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

// TokenSource hands out the bearer credential attached to every authenticated call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Session holds the shopper's current access token. It is replaced after the UI
// runs its login step and cleared on logout.
type Session struct {
	mu    sync.RWMutex
	token string
	now   func() time.Time
}

// NewSession builds a session seeded with an optional token.
func NewSession(token string) *Session {
	return &Session{token: strings.TrimSpace(token), now: time.Now}
}

// Set replaces the access token.
func (s *Session) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = strings.TrimSpace(token)
}

// Clear drops the access token.
func (s *Session) Clear() {
	s.Set("")
}

// Token returns the access token or an AUTH_ERROR when none is usable.
func (s *Session) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	token := s.token
	now := s.now
	s.mu.RUnlock()

	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeAuth, "no access token; login required")
	}
	if err := CheckExpiry(token, now()); err != nil {
		return "", err
	}
	return token, nil
}

// CheckExpiry rejects JWT access tokens whose exp claim is already in the past so
// callers get an AUTH_ERROR without a round-trip. Opaque (non-JWT) tokens pass through.
func CheckExpiry(token string, now time.Time) error {
	claims, err := parseUnverified(token)
	if err != nil {
		return nil
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now) {
		return pkgerrors.New(pkgerrors.CodeAuth, "access token expired; login required")
	}
	return nil
}

// UserID extracts the user identifier the server embedded in the access token.
func UserID(token string) (string, error) {
	claims, err := parseUnverified(token)
	if err != nil {
		return "", fmt.Errorf("parse access token: %w", err)
	}
	switch v := claims.UserID.(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	return "", fmt.Errorf("access token carries no user id")
}

func parseUnverified(token string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can read from an access token without the
// server's signing key.
type TokenInfo struct {
	Subject   string
	Type      string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

type accessClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// InspectToken decodes the claims of a JWT without verifying its signature.
// The result is informational only; the server remains the authority.
func InspectToken(token string) (TokenInfo, error) {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("decoding token: %w", err)
	}

	info := TokenInfo{Subject: claims.Subject, Type: claims.Type}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// AccessInfo inspects the persisted access token.
func (m *Manager) AccessInfo() (TokenInfo, bool) {
	token := m.AccessToken()
	if token == "" {
		return TokenInfo{}, false
	}
	info, err := InspectToken(token)
	if err != nil {
		return TokenInfo{}, false
	}
	return info, true
}

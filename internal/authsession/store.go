package authsession

import (
	"context"
	"errors"
	"time"

	"sso-connect/internal/auth"
)

// ErrNotFound is returned for unknown or expired auth sessions.
var ErrNotFound = errors.New("authsession: not found")

// AuthSession is the server-held state of an SSO handshake that ended
// with an identity not yet linked to a local account.
type AuthSession struct {
	ID            string             `json:"id"`
	Authenticator auth.Authenticator `json:"authenticator"`
	SSOUser       auth.Identity      `json:"ssoUser"`
	CreatedAt     time.Time          `json:"createdAt"`
	ExpiresAt     time.Time          `json:"expiresAt"`
}

// Expired reports whether s is no longer usable at now.
func (s *AuthSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists auth sessions until they expire or are consumed.
type Store interface {
	Create(ctx context.Context, s AuthSession) error
	Get(ctx context.Context, id string) (*AuthSession, error)
	Delete(ctx context.Context, id string) error
}

func validate(s AuthSession) (time.Duration, error) {
	if s.ID == "" || s.SSOUser.Provider == "" || s.SSOUser.ProviderUserID == "" {
		return 0, errors.New("authsession: missing id or identity")
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return 0, errors.New("authsession: expires_at must be in the future")
	}
	return ttl, nil
}

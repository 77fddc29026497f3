package session

import (
	"context"
	"time"
)

// Session is an authenticated user session. It stores identity pointers
// only, no provider tokens.
type Session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Provider  string    `json:"provider,omitempty"` // how the user signed in
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store defines how sessions are stored and retrieved.
// Get returns (nil, nil) for unknown sessions.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}

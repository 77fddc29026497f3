package credentials

import "time"

// Credential is a local password attached to a user created through the
// connect flow.
type Credential struct {
	ID           string
	UserID       string
	PasswordHash string
	HashVersion  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

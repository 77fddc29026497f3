package resolver

import (
	"context"
	"errors"

	"sso-connect/internal/auth"
)

// ErrNotLinked means the identity belongs to no local user yet; the
// caller should start the connect flow.
var ErrNotLinked = errors.New("resolver: identity not linked")

// Resolver determines which internal user an external identity belongs to.
// It never creates users.
type Resolver interface {
	Resolve(ctx context.Context, identity *auth.Identity) (userID string, err error)
}

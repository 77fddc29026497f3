package provider

import (
	"context"

	"sso-connect/internal/auth"
)

// OAuthProvider defines the contract every external auth provider
// must implement. Implementations return identity facts only and
// must not perform user creation, linking, or session management.
type OAuthProvider interface {
	// Name returns the provider identifier used in routes (e.g. "google").
	Name() string

	// Authenticator describes the provider for the connect page.
	Authenticator() auth.Authenticator

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code for provider credentials
	// and returns a normalized identity. No auth decisions are made here.
	ExchangeCode(ctx context.Context, code string, codeVerifier string) (*auth.Identity, error)
}

// Package oidc implements OAuthProvider for any OpenID Connect issuer
// (Google, Keycloak realms, ...) using discovery.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sso-connect/internal/auth"
	"sso-connect/internal/logger"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Config describes one provider instance.
type Config struct {
	Name         string // route key
	DisplayName  string
	Issuer       string
	ClientID     string
	ClientSecret string // empty for public clients
	RedirectURL  string
	// PublicAuthURL overrides the discovered authorization endpoint, for
	// issuers reachable under a different host from the browser.
	PublicAuthURL string
	Scopes        []string
	UI            auth.AuthenticatorUI
}

// Provider implements OAuth + OIDC authentication against one issuer.
// It returns identity facts only; no user/session decisions are made here.
type Provider struct {
	name          string
	authenticator auth.Authenticator
	oauthConfig   *oauth2.Config
	verifier      *gooidc.IDTokenVerifier
}

// New initializes a provider using issuer discovery.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Name == "" || cfg.Issuer == "" || cfg.ClientID == "" || cfg.RedirectURL == "" {
		return nil, fmt.Errorf("oidc provider %q: missing required fields", cfg.Name)
	}

	oidcProvider, err := gooidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider %q: discovery failed: %w", cfg.Name, err)
	}

	ep := oidcProvider.Endpoint()
	if cfg.PublicAuthURL != "" {
		ep.AuthURL = cfg.PublicAuthURL
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}

	return newProvider(cfg, &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     ep,
		Scopes:       scopes,
	}, oidcProvider.Verifier(&gooidc.Config{ClientID: cfg.ClientID})), nil
}

func newProvider(cfg Config, oauthCfg *oauth2.Config, verifier *gooidc.IDTokenVerifier) *Provider {
	displayName := cfg.DisplayName
	if displayName == "" {
		displayName = cfg.Name
	}
	return &Provider{
		name: cfg.Name,
		authenticator: auth.Authenticator{
			Name: displayName,
			UI:   cfg.UI,
		},
		oauthConfig: oauthCfg,
		verifier:    verifier,
	}
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Authenticator() auth.Authenticator {
	return p.authenticator
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode exchanges the authorization code and returns a normalized identity.
func (p *Provider) ExchangeCode(ctx context.Context, code string, codeVerifier string) (*auth.Identity, error) {
	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange failed: %w", p.name, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%s did not return id_token", p.name)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%s id_token verification failed: %w", p.name, err)
	}

	var c claims
	if err := idToken.Claims(&c); err != nil {
		return nil, fmt.Errorf("%s id_token claims parse failed: %w", p.name, err)
	}

	identity, err := identityFromClaims(p.name, c)
	if err != nil {
		return nil, err
	}

	logger.Info("oidc identity verified", map[string]any{
		"provider":       p.name,
		"issuer":         idToken.Issuer,
		"email_verified": identity.EmailVerified,
		"expiry_unix":    idToken.Expiry.Unix(),
	})
	return identity, nil
}

type claims struct {
	Subject           string `json:"sub"`
	Email             string `json:"email"`
	EmailVerified     bool   `json:"email_verified"`
	Name              string `json:"name"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	PreferredUsername string `json:"preferred_username"`
	Picture           string `json:"picture"`
}

func identityFromClaims(provider string, c claims) (*auth.Identity, error) {
	if c.Subject == "" || c.Email == "" {
		return nil, errors.New(provider + " id_token missing required claims")
	}

	name := c.Name
	if name == "" {
		name = strings.TrimSpace(c.GivenName + " " + c.FamilyName)
	}
	if name == "" {
		name = c.PreferredUsername
	}

	return &auth.Identity{
		Provider:       provider,
		ProviderUserID: c.Subject,
		Email:          c.Email,
		EmailVerified:  c.EmailVerified,
		Name:           name,
		PhotoURL:       c.Picture,
	}, nil
}

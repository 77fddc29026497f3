package auth

// Identity represents a normalized external authentication identity
// returned by an OAuth provider. It contains facts only, no decisions.
type Identity struct {
	Provider       string `json:"provider"`       // e.g. "google", "keycloak"
	ProviderUserID string `json:"providerUserID"` // provider-scoped subject
	Email          string `json:"email"`          // email asserted by the provider
	EmailVerified  bool   `json:"emailVerified"`  // whether the provider asserts ownership
	Name           string `json:"name,omitempty"` // display name, if released
	PhotoURL       string `json:"photoUrl,omitempty"`
}

// Authenticator describes the identity provider a user signed in with,
// as presented on the connect page.
type Authenticator struct {
	Name string          `json:"name"`
	UI   AuthenticatorUI `json:"ui"`
}

// AuthenticatorUI holds presentation details of an authenticator.
type AuthenticatorUI struct {
	ButtonColor         string `json:"buttonColor,omitempty"`
	PhotoURL            string `json:"photoUrl,omitempty"`
	TermsOfServiceLabel string `json:"termsOfServiceLabel"`
	TermsOfServiceURL   string `json:"termsOfServiceUrl,omitempty"`
}

// RegistrationConfig controls the registration form offered to an
// external identity that has no local account yet.
type RegistrationConfig struct {
	AllowNameEdit         bool `json:"allowNameEdit"`
	AllowEmailEdit        bool `json:"allowEmailEdit"`
	RequirePassword       bool `json:"requirePassword"`
	PasswordMinLength     int  `json:"passwordMinLength"`
	RequireTermsOfService bool `json:"requireTermsOfService"`
}

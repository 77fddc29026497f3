package connect

import "sso-connect/internal/auth"

// View is one of the fixed page variants: *LinkUserView or *FailView.
type View interface {
	Step() Step
	Title() string
	view()
}

// LinkUserView summarizes the external identity and offers registration.
type LinkUserView struct {
	PageTitle string
	Summary   IdentitySummary
	Form      RegistrationForm
}

// IdentitySummary shows who the identity provider says the user is.
type IdentitySummary struct {
	SSOUser auth.Identity
	UI      auth.AuthenticatorUI
}

// RegistrationForm is the account registration offered for the identity.
// The form's submitter must call OnError when registration fails.
type RegistrationForm struct {
	Config              auth.RegistrationConfig
	SSOUser             auth.Identity
	TermsOfServiceLabel string
	AuthSessionID       string
	OnError             func(error) `json:"-"`
}

// FailView is the terminal error page. Message may be empty.
type FailView struct {
	PageTitle string
	Message   string
}

func (v *LinkUserView) Step() Step    { return StepLinkUser }
func (v *LinkUserView) Title() string { return v.PageTitle }
func (v *LinkUserView) view()         {}

func (v *FailView) Step() Step    { return StepFail }
func (v *FailView) Title() string { return v.PageTitle }
func (v *FailView) view()         {}

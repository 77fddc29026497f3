package connect

import "sso-connect/internal/auth"

// Step identifies the screen shown during the link flow.
type Step string

const (
	StepLinkUser Step = "linkUser"
	StepFail     Step = "fail"
)

// Payload is the server-supplied description of a link flow. Step is
// kept as received; unknown values are treated as a failure.
type Payload struct {
	Step          string    `json:"step,omitempty"`
	AuthSessionID string    `json:"authSessionID,omitempty"`
	LinkUser      *LinkUser `json:"linkUser,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// LinkUser is present when the external identity has no local account yet.
type LinkUser struct {
	Authenticator auth.Authenticator      `json:"authenticator"`
	SSOUser       auth.Identity           `json:"ssoUser"`
	Config        auth.RegistrationConfig `json:"config"`
}

// DisplayState is the controller's current view of the flow.
// Step is always StepLinkUser or StepFail, and StepLinkUser implies
// LinkUser != nil.
type DisplayState struct {
	Step          Step      `json:"step"`
	AuthSessionID string    `json:"authSessionID,omitempty"`
	LinkUser      *LinkUser `json:"linkUser,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// stateFromPayload resolves the initial step.
func stateFromPayload(p Payload) DisplayState {
	s := DisplayState{
		Step:          StepFail,
		AuthSessionID: p.AuthSessionID,
		LinkUser:      p.LinkUser,
		Error:         p.Error,
	}
	if Step(p.Step) == StepLinkUser && p.LinkUser != nil {
		s.Step = StepLinkUser
	}
	return s
}

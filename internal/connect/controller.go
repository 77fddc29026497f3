package connect

import "fmt"

// Translator returns the localized form of key, formatted with args.
type Translator interface {
	T(key string, args ...any) string
}

// Message keys shared with the translation catalog.
const (
	MsgYourAccount   = "Your %s Account"
	MsgErrorSignIn   = "Error Signing In"
	MsgDefaultFailed = "An error has occurred, please try again."
)

// Controller owns the DisplayState of a single connect page.
// It is not safe for concurrent use.
type Controller struct {
	state DisplayState
	tr    Translator
}

// NewController resolves the initial state from p.
func NewController(p Payload, tr Translator) *Controller {
	if tr == nil {
		tr = identity{}
	}
	return &Controller{state: stateFromPayload(p), tr: tr}
}

// State returns a copy of the current display state.
func (c *Controller) State() DisplayState {
	return c.state
}

// View selects the view for the current state.
func (c *Controller) View() View {
	return SelectView(c.state, c.tr, c.ReportError)
}

// ReportError moves the flow to StepFail and records a message extracted
// from err, or the default message. There is no way back to StepLinkUser.
func (c *Controller) ReportError(err error) {
	msg, ok := ErrorMessage(err)
	if !ok {
		msg = c.tr.T(MsgDefaultFailed)
	}
	c.state.Step = StepFail
	c.state.Error = msg
}

// SelectView maps a display state to exactly one view. onError is handed
// to the registration form.
func SelectView(s DisplayState, tr Translator, onError func(error)) View {
	if tr == nil {
		tr = identity{}
	}
	switch {
	case s.Step == StepLinkUser && s.LinkUser != nil:
		lu := s.LinkUser
		return &LinkUserView{
			PageTitle: tr.T(MsgYourAccount, lu.Authenticator.Name),
			Summary: IdentitySummary{
				SSOUser: lu.SSOUser,
				UI:      lu.Authenticator.UI,
			},
			Form: RegistrationForm{
				Config:              lu.Config,
				SSOUser:             lu.SSOUser,
				TermsOfServiceLabel: lu.Authenticator.UI.TermsOfServiceLabel,
				AuthSessionID:       s.AuthSessionID,
				OnError:             onError,
			},
		}
	default:
		return &FailView{
			PageTitle: tr.T(MsgErrorSignIn),
			Message:   s.Error,
		}
	}
}

// identity formats keys without translating them.
type identity struct{}

func (identity) T(key string, args ...any) string {
	if len(args) == 0 {
		return key
	}
	return fmt.Sprintf(key, args...)
}

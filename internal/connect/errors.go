package connect

import (
	"errors"
	"strings"
)

// FailureKind classifies a LinkFailure for status codes and metrics.
type FailureKind int

const (
	FailureUnavailable FailureKind = iota // storage, network, anything unexpected
	FailureValidation
	FailureConflict
	FailureExpired
)

func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureConflict:
		return "conflict"
	case FailureExpired:
		return "expired"
	default:
		return "unavailable"
	}
}

// LinkFailure is any failure of the registration/link step. Message is
// shown to the user; an empty Message means the default message.
type LinkFailure struct {
	Kind    FailureKind
	Message string
	Err     error
}

// NewLinkFailure wraps err with a user-facing message.
func NewLinkFailure(kind FailureKind, message string, err error) *LinkFailure {
	return &LinkFailure{Kind: kind, Message: message, Err: err}
}

func (e *LinkFailure) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return "link failed: " + e.Kind.String() + ": " + e.Err.Error()
	}
	return "link failed: " + e.Kind.String()
}

func (e *LinkFailure) Unwrap() error { return e.Err }

// KindOf returns the failure kind carried by err.
func KindOf(err error) FailureKind {
	var lf *LinkFailure
	if errors.As(err, &lf) && lf != nil {
		return lf.Kind
	}
	return FailureUnavailable
}

// ErrorMessage extracts the user-facing message of err. A LinkFailure
// contributes only its Message, so wrapped causes never reach the page.
// It reports false for nil, empty and misbehaving errors.
func ErrorMessage(err error) (msg string, ok bool) {
	if err == nil {
		return "", false
	}
	defer func() {
		if recover() != nil {
			msg, ok = "", false
		}
	}()

	var lf *LinkFailure
	if errors.As(err, &lf) {
		if lf == nil {
			return "", false
		}
		msg = strings.TrimSpace(lf.Message)
		return msg, msg != ""
	}

	msg = strings.TrimSpace(err.Error())
	return msg, msg != ""
}

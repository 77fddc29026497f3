package handler

import (
	"context"
	"errors"
	"net/http"

	"sso-connect/internal/authsession"
	"sso-connect/internal/connect"
	"sso-connect/internal/i18n"
	"sso-connect/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalog keys of the handler's own messages.
const (
	msgSessionExpired = "Your sign in session has expired, please sign in again."
	msgProviderFailed = "We could not sign you in with %s."
	msgNameRequired   = "Name is required."
	msgInvalidEmail   = "Enter a valid email address."
	msgPasswordShort  = "Password must be at least %d characters."
	msgTermsRequired  = "You must agree to the terms of service."
	msgEmailTaken     = "That email is already in use."
	msgAlreadyLinked  = "This account is already connected."
)

// loadAuthSession returns ErrNotFound for empty ids and expired sessions.
func (h *Handler) loadAuthSession(ctx context.Context, id string) (*authsession.AuthSession, error) {
	if id == "" {
		return nil, authsession.ErrNotFound
	}
	s, err := h.AuthSessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Expired(h.now()) {
		return nil, authsession.ErrNotFound
	}
	return s, nil
}

// bootstrap builds the connect payload for an auth session. The returned
// kind is meaningful only when the payload carries no link data.
func (h *Handler) bootstrap(ctx context.Context, id string, tr *i18n.Printer) (connect.Payload, *authsession.AuthSession, connect.FailureKind) {
	s, err := h.loadAuthSession(ctx, id)
	switch {
	case errors.Is(err, authsession.ErrNotFound):
		return connect.Payload{Error: tr.T(msgSessionExpired)}, nil, connect.FailureExpired
	case err != nil:
		logger.From(ctx).Error("auth session load failed", zap.Error(err))
		return connect.Payload{Error: tr.T(connect.MsgDefaultFailed)}, nil, connect.FailureUnavailable
	}

	return connect.Payload{
		Step:          string(connect.StepLinkUser),
		AuthSessionID: s.ID,
		LinkUser: &connect.LinkUser{
			Authenticator: s.Authenticator,
			SSOUser:       s.SSOUser,
			Config:        h.opts.Registration,
		},
	}, s, connect.FailureUnavailable
}

func (h *Handler) connectPage(c *gin.Context) {
	tr := h.translator(c)
	payload, _, _ := h.bootstrap(c.Request.Context(), c.Query("authSessionID"), tr)

	ctrl := connect.NewController(payload, tr)
	h.renderView(c, http.StatusOK, ctrl.View(), tr)
}

// connectState serves the payload the connect page is built from.
func (h *Handler) connectState(c *gin.Context) {
	tr := h.translator(c)
	payload, s, kind := h.bootstrap(c.Request.Context(), c.Query("authSessionID"), tr)

	status := http.StatusOK
	if s == nil && kind == connect.FailureUnavailable {
		status = http.StatusInternalServerError
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(status, payload)
}

func statusFor(kind connect.FailureKind) int {
	switch kind {
	case connect.FailureValidation:
		return http.StatusBadRequest
	case connect.FailureConflict:
		return http.StatusConflict
	case connect.FailureExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

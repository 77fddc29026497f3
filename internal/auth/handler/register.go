package handler

import (
	"errors"
	"net/http"

	"sso-connect/internal/auth"
	"sso-connect/internal/auth/credentials"
	"sso-connect/internal/auth/linker"
	"sso-connect/internal/connect"
	"sso-connect/internal/i18n"
	"sso-connect/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerForm struct {
	AuthSessionID string `form:"authSessionID"`
	Name          string `form:"name"`
	Email         string `form:"email"`
	Password      string `form:"password"`
	AgreeToTerms  bool   `form:"agreeToTerms"`
}

// Register handles the connect page's registration form. Failures are
// reported through the form's OnError and answered with the failure view.
func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.From(ctx)
	tr := h.translator(c)

	var form registerForm
	bindErr := c.ShouldBind(&form)

	payload, s, kind := h.bootstrap(ctx, form.AuthSessionID, tr)
	ctrl := connect.NewController(payload, tr)

	view, ok := ctrl.View().(*connect.LinkUserView)
	if !ok {
		h.Metrics.ObserveLink(kind.String())
		h.renderView(c, statusFor(kind), ctrl.View(), tr)
		return
	}

	fail := func(f *connect.LinkFailure) {
		view.Form.OnError(f)
		h.Metrics.ObserveLink(f.Kind.String())
		h.renderView(c, statusFor(f.Kind), ctrl.View(), tr)
	}

	if bindErr != nil {
		fail(connect.NewLinkFailure(connect.FailureValidation, "", bindErr))
		return
	}

	userID, err := h.Linker.RegisterAndLink(ctx, linker.Request{
		SSOUser:      s.SSOUser,
		Name:         form.Name,
		Email:        form.Email,
		Password:     form.Password,
		AgreeToTerms: form.AgreeToTerms,
	}, view.Form.Config)
	if err != nil {
		f := linkFailure(err, tr, view.Form.Config)
		if f.Kind == connect.FailureUnavailable {
			log.Error("register and link failed", zap.Error(err))
		} else {
			log.Info("registration rejected", zap.String("kind", f.Kind.String()), zap.Error(err))
		}
		fail(f)
		return
	}

	if err := h.AuthSessions.Delete(ctx, s.ID); err != nil {
		log.Warn("auth session delete failed", zap.Error(err))
	}

	if err := h.startSession(c, userID, s.SSOUser.Provider); err != nil {
		log.Error("session create failed", zap.Error(err))
		fail(connect.NewLinkFailure(connect.FailureUnavailable, "", err))
		return
	}

	log.Info("account linked",
		zap.String("provider", s.SSOUser.Provider),
		zap.String("user_id", userID),
	)
	h.Metrics.ObserveLink("linked")
	c.Redirect(http.StatusSeeOther, "/")
}

// linkFailures maps registration errors to a kind and a catalog key.
// An empty key means the default message.
var linkFailures = []struct {
	err  error
	kind connect.FailureKind
	key  string
}{
	{linker.ErrNameRequired, connect.FailureValidation, msgNameRequired},
	{linker.ErrNameEditForbidden, connect.FailureValidation, ""},
	{linker.ErrInvalidEmail, connect.FailureValidation, msgInvalidEmail},
	{linker.ErrEmailEditForbidden, connect.FailureValidation, ""},
	{linker.ErrPasswordTooShort, connect.FailureValidation, msgPasswordShort},
	{credentials.ErrPasswordTooShort, connect.FailureValidation, msgPasswordShort},
	{credentials.ErrPasswordTooLong, connect.FailureValidation, ""},
	{linker.ErrTermsNotAccepted, connect.FailureValidation, msgTermsRequired},
	{linker.ErrEmailTaken, connect.FailureConflict, msgEmailTaken},
	{linker.ErrIdentityLinked, connect.FailureConflict, msgAlreadyLinked},
}

func linkFailure(err error, tr *i18n.Printer, cfg auth.RegistrationConfig) *connect.LinkFailure {
	for _, m := range linkFailures {
		if !errors.Is(err, m.err) {
			continue
		}
		var msg string
		switch m.key {
		case "":
		case msgPasswordShort:
			msg = tr.T(m.key, max(cfg.PasswordMinLength, credentials.MinPasswordLength))
		default:
			msg = tr.T(m.key)
		}
		return connect.NewLinkFailure(m.kind, msg, err)
	}
	return connect.NewLinkFailure(connect.FailureUnavailable, "", err)
}

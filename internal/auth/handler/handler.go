// Package handler serves the SSO handshake, the connect page and the
// session endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"sso-connect/internal/auth"
	"sso-connect/internal/auth/linker"
	"sso-connect/internal/auth/provider"
	"sso-connect/internal/auth/resolver"
	"sso-connect/internal/authsession"
	"sso-connect/internal/connect"
	"sso-connect/internal/i18n"
	"sso-connect/internal/logger"
	"sso-connect/internal/metrics"
	"sso-connect/internal/render"
	"sso-connect/internal/session"
	"sso-connect/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Linker registers a local account for an external identity.
type Linker interface {
	RegisterAndLink(ctx context.Context, req linker.Request, cfg auth.RegistrationConfig) (userID string, err error)
}

// PasswordAuthenticator checks local credentials.
type PasswordAuthenticator interface {
	Authenticate(ctx context.Context, email string, password string) (userID string, err error)
}

// Deps are the collaborators of Handler.
type Deps struct {
	Providers    *provider.Registry
	Sessions     session.Store
	AuthSessions authsession.Store
	Resolver     resolver.Resolver
	Linker       Linker
	Credentials  PasswordAuthenticator
	Renderer     *render.Renderer
	Metrics      *metrics.Metrics
}

// Options tune the flows.
type Options struct {
	SessionTTL     time.Duration
	AuthSessionTTL time.Duration
	Cookie         session.CookieOptions
	Registration   auth.RegistrationConfig
	DefaultLocale  string
}

type Handler struct {
	Deps
	opts Options
	now  func() time.Time
}

func NewHandler(deps Deps, opts Options) *Handler {
	return &Handler{Deps: deps, opts: opts, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(h.Renderer.Templates())

	r.GET("/oauth/login/:provider", h.login)
	r.GET("/oauth/callback/:provider", h.callback)

	r.GET("/authenticate/connect", h.connectPage)
	r.POST("/authenticate/connect", h.Register)
	r.GET("/api/authenticate/connect", h.connectState)

	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
}

func (h *Handler) login(c *gin.Context) {
	p, err := h.Providers.Get(c.Param("provider"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown oauth provider"})
		return
	}

	state, challenge, err := h.beginHandshake(c)
	if err != nil {
		logger.From(c.Request.Context()).Error("handshake start failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Redirect(http.StatusFound, p.AuthCodeURL(state, challenge))
}

func (h *Handler) callback(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.From(ctx)
	tr := h.translator(c)
	providerName := c.Param("provider")

	p, err := h.Providers.Get(providerName)
	if err != nil {
		h.renderFailure(c, http.StatusNotFound, tr, "")
		return
	}
	failed := tr.T(msgProviderFailed, p.Authenticator().Name)

	verifier, ok := h.finishHandshake(c)
	if !ok {
		log.Warn("oauth state mismatch", zap.String("provider", providerName))
		h.Metrics.ObserveSignIn(providerName, "error")
		h.renderFailure(c, http.StatusBadRequest, tr, failed)
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		log.Warn("oidc callback returned error",
			zap.String("provider", providerName),
			zap.String("error", errParam),
			zap.String("desc", c.Query("error_description")),
		)
		h.Metrics.ObserveSignIn(providerName, "error")
		h.renderFailure(c, http.StatusUnauthorized, tr, failed)
		return
	}

	code := c.Query("code")
	if code == "" {
		log.Warn("oidc callback missing code and error", zap.String("provider", providerName))
		h.Metrics.ObserveSignIn(providerName, "error")
		h.renderFailure(c, http.StatusBadRequest, tr, failed)
		return
	}

	identity, err := p.ExchangeCode(ctx, code, verifier)
	if err != nil {
		log.Warn("code exchange failed", zap.String("provider", providerName), zap.Error(err))
		h.Metrics.ObserveSignIn(providerName, "error")
		h.renderFailure(c, http.StatusUnauthorized, tr, failed)
		return
	}

	userID, err := h.Resolver.Resolve(ctx, identity)
	switch {
	case err == nil:
		if err := h.startSession(c, userID, providerName); err != nil {
			log.Error("session create failed", zap.Error(err))
			h.renderFailure(c, http.StatusInternalServerError, tr, "")
			return
		}
		log.Info("sign in", zap.String("provider", providerName), zap.String("user_id", userID))
		h.Metrics.ObserveSignIn(providerName, "session")
		c.Redirect(http.StatusFound, "/")

	case errors.Is(err, resolver.ErrNotLinked):
		id, err := h.createAuthSession(ctx, p.Authenticator(), identity)
		if err != nil {
			log.Error("auth session create failed", zap.Error(err))
			h.renderFailure(c, http.StatusInternalServerError, tr, "")
			return
		}
		h.Metrics.ObserveSignIn(providerName, "connect")
		c.Redirect(http.StatusFound, "/authenticate/connect?authSessionID="+url.QueryEscape(id))

	default:
		log.Error("identity resolve failed", zap.String("provider", providerName), zap.Error(err))
		h.Metrics.ObserveSignIn(providerName, "error")
		h.renderFailure(c, http.StatusInternalServerError, tr, "")
	}
}

func (h *Handler) createAuthSession(ctx context.Context, a auth.Authenticator, identity *auth.Identity) (string, error) {
	id, err := utils.RandomToken(utils.TokenSize)
	if err != nil {
		return "", err
	}
	now := h.now()
	err = h.AuthSessions.Create(ctx, authsession.AuthSession{
		ID:            id,
		Authenticator: a,
		SSOUser:       *identity,
		CreatedAt:     now,
		ExpiresAt:     now.Add(h.opts.AuthSessionTTL),
	})
	return id, err
}

// startSession persists a user session and issues its cookie.
func (h *Handler) startSession(c *gin.Context, userID, provider string) error {
	sessionID, err := utils.RandomToken(utils.TokenSize)
	if err != nil {
		return err
	}

	now := h.now()
	expiresAt := now.Add(h.opts.SessionTTL)

	if err := h.Sessions.Create(c.Request.Context(), session.Session{
		SessionID: sessionID,
		UserID:    userID,
		Provider:  provider,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}); err != nil {
		return err
	}

	session.SetCookie(c.Writer, sessionID, expiresAt, h.opts.Cookie)
	return nil
}

func (h *Handler) Logout(c *gin.Context) {
	if sid := session.ReadCookie(c.Request, h.opts.Cookie); sid != "" {
		// best-effort
		if err := h.Sessions.Delete(c.Request.Context(), sid); err != nil {
			logger.From(c.Request.Context()).Warn("session delete failed", zap.Error(err))
		}
	}

	session.ClearCookie(c.Writer, h.opts.Cookie)
	c.Status(http.StatusNoContent)
}

func (h *Handler) translator(c *gin.Context) *i18n.Printer {
	return i18n.FromAcceptLanguage(c.GetHeader("Accept-Language"), i18n.Parse(h.opts.DefaultLocale))
}

// renderFailure shows the failure page with message, or the default
// message when it is empty.
func (h *Handler) renderFailure(c *gin.Context, status int, tr *i18n.Printer, message string) {
	ctrl := connect.NewController(connect.Payload{}, tr)
	ctrl.ReportError(connect.NewLinkFailure(connect.FailureUnavailable, message, nil))
	h.renderView(c, status, ctrl.View(), tr)
}

func (h *Handler) renderView(c *gin.Context, status int, v connect.View, tr *i18n.Printer) {
	name, page, err := h.Renderer.Page(v, tr, tr.Lang())
	if err != nil {
		logger.From(c.Request.Context()).Error("render failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	h.Metrics.ObserveView(string(v.Step()))
	c.Header("Cache-Control", "no-store")
	c.HTML(status, name, page)
}

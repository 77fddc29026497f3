package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"sso-connect/internal/auth"
	"sso-connect/internal/auth/credentials"
	"sso-connect/internal/auth/linker"
	"sso-connect/internal/auth/provider"
	"sso-connect/internal/auth/resolver"
	"sso-connect/internal/authsession"
	"sso-connect/internal/connect"
	"sso-connect/internal/metrics"
	"sso-connect/internal/render"
	"sso-connect/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var googleUser = auth.Identity{
	Provider:       "google",
	ProviderUserID: "g-123",
	Email:          "ada@example.com",
	EmailVerified:  true,
	Name:           "Ada Lovelace",
}

type fakeProvider struct {
	identity     *auth.Identity
	err          error
	gotVerifier  string
	gotChallenge string
}

func (f *fakeProvider) Name() string { return "google" }

func (f *fakeProvider) Authenticator() auth.Authenticator {
	return auth.Authenticator{Name: "Google", UI: auth.AuthenticatorUI{TermsOfServiceLabel: "I agree"}}
}

func (f *fakeProvider) AuthCodeURL(state, challenge string) string {
	f.gotChallenge = challenge
	return "https://idp.example.com/auth?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) ExchangeCode(_ context.Context, _ string, verifier string) (*auth.Identity, error) {
	f.gotVerifier = verifier
	return f.identity, f.err
}

type fakeResolver struct {
	userID string
	err    error
}

func (f *fakeResolver) Resolve(context.Context, *auth.Identity) (string, error) {
	return f.userID, f.err
}

type fakeLinker struct {
	userID string
	err    error
	calls  int
	got    linker.Request
	gotCfg auth.RegistrationConfig
}

func (f *fakeLinker) RegisterAndLink(_ context.Context, req linker.Request, cfg auth.RegistrationConfig) (string, error) {
	f.calls++
	f.got, f.gotCfg = req, cfg
	return f.userID, f.err
}

type fakeCredentials struct {
	userID string
	err    error
}

func (f *fakeCredentials) Authenticate(context.Context, string, string) (string, error) {
	return f.userID, f.err
}

type testEnv struct {
	router       *gin.Engine
	provider     *fakeProvider
	resolver     *fakeResolver
	linker       *fakeLinker
	credentials  *fakeCredentials
	sessions     *session.RedisStore
	authSessions *authsession.MemoryStore
	metrics      *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	renderer, err := render.New()
	require.NoError(t, err)

	env := &testEnv{
		provider:     &fakeProvider{identity: &googleUser},
		resolver:     &fakeResolver{},
		linker:       &fakeLinker{userID: "user-new"},
		credentials:  &fakeCredentials{},
		sessions:     session.NewRedisStore(client),
		authSessions: authsession.NewMemoryStore(),
		metrics:      metrics.New(),
	}

	h := NewHandler(Deps{
		Providers:    provider.NewRegistry(env.provider),
		Sessions:     env.sessions,
		AuthSessions: env.authSessions,
		Resolver:     env.resolver,
		Linker:       env.linker,
		Credentials:  env.credentials,
		Renderer:     renderer,
		Metrics:      env.metrics,
	}, Options{
		SessionTTL:     time.Hour,
		AuthSessionTTL: 15 * time.Minute,
		Cookie:         session.DefaultCookieOptions(false),
		Registration:   auth.RegistrationConfig{RequirePassword: true, PasswordMinLength: 10, RequireTermsOfService: true},
		DefaultLocale:  "en",
	})

	env.router = gin.New()
	h.RegisterRoutes(env.router)
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedAuthSession(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, e.authSessions.Create(context.Background(), authsession.AuthSession{
		ID:            id,
		Authenticator: e.provider.Authenticator(),
		SSOUser:       googleUser,
		CreatedAt:     time.Now(),
		ExpiresAt:     time.Now().Add(time.Minute),
	}))
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func callbackRequest(query string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/oauth/callback/google?"+query, nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "state-1"})
	req.AddCookie(&http.Cookie{Name: pkceCookieName, Value: "verifier-1"})
	return req
}

func TestLogin_RedirectsWithStateAndPKCE(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/oauth/login/google", nil))
	require.Equal(t, http.StatusFound, w.Code)

	state := cookieNamed(w, stateCookieName)
	verifier := cookieNamed(w, pkceCookieName)
	require.NotNil(t, state)
	require.NotNil(t, verifier)
	assert.True(t, state.HttpOnly)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state.Value, loc.Query().Get("state"))
	assert.Equal(t, pkceChallenge(verifier.Value), env.provider.gotChallenge)

	w = env.do(httptest.NewRequest(http.MethodGet, "/oauth/login/github", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPKCEChallenge(t *testing.T) {
	// RFC 7636 appendix B
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		pkceChallenge("dBjftJeZ4CVP-mJ92cLZfpHLdEjh9XOzaW6Rg4Tx0Ow"))
}

func TestCallback_LinkedUserGetsSession(t *testing.T) {
	env := newTestEnv(t)
	env.resolver.userID = "user-1"

	w := env.do(callbackRequest("state=state-1&code=abc"))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, "verifier-1", env.provider.gotVerifier)

	c := cookieNamed(w, session.DevCookieName)
	require.NotNil(t, c)

	sess, err := env.sessions.Get(context.Background(), c.Value)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "google", sess.Provider)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.SignInsTotal.WithLabelValues("google", "session")))
}

func TestCallback_UnlinkedStartsConnect(t *testing.T) {
	env := newTestEnv(t)
	env.resolver.err = resolver.ErrNotLinked

	w := env.do(callbackRequest("state=state-1&code=abc"))
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/authenticate/connect", loc.Path)

	s, err := env.authSessions.Get(context.Background(), loc.Query().Get("authSessionID"))
	require.NoError(t, err)
	assert.Equal(t, googleUser, s.SSOUser)
	assert.Equal(t, "Google", s.Authenticator.Name)
	assert.Nil(t, cookieNamed(w, session.DevCookieName))
}

func TestCallback_Failures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(env *testEnv)
		req    *http.Request
		status int
		body   string
	}{
		{
			name:   "state mismatch",
			req:    callbackRequest("state=other&code=abc"),
			status: http.StatusBadRequest,
			body:   "We could not sign you in with Google.",
		},
		{
			name:   "provider error",
			req:    callbackRequest("state=state-1&error=access_denied"),
			status: http.StatusUnauthorized,
			body:   "We could not sign you in with Google.",
		},
		{
			name:   "missing code",
			req:    callbackRequest("state=state-1"),
			status: http.StatusBadRequest,
			body:   "We could not sign you in with Google.",
		},
		{
			name:   "exchange failed",
			setup:  func(env *testEnv) { env.provider.err = errors.New("bad code") },
			req:    callbackRequest("state=state-1&code=abc"),
			status: http.StatusUnauthorized,
			body:   "We could not sign you in with Google.",
		},
		{
			name:   "resolver failed",
			setup:  func(env *testEnv) { env.resolver.err = errors.New("db down") },
			req:    callbackRequest("state=state-1&code=abc"),
			status: http.StatusInternalServerError,
			body:   "An error has occurred, please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.setup != nil {
				tt.setup(env)
			}

			w := env.do(tt.req)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), "<title>Error Signing In</title>")
			assert.Contains(t, w.Body.String(), tt.body)
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		})
	}
}

func TestConnectPage_LinkUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedAuthSession(t, "as-1")

	w := env.do(httptest.NewRequest(http.MethodGet, "/authenticate/connect?authSessionID=as-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	body := w.Body.String()
	assert.Contains(t, body, "<title>Your Google Account</title>")
	assert.Contains(t, body, `name="authSessionID" value="as-1"`)
	assert.Contains(t, body, "ada@example.com")
	assert.Contains(t, body, `minlength="10"`)
	assert.Contains(t, body, "I agree")

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ConnectViewsTotal.WithLabelValues("linkUser")))
}

func TestConnectPage_ExpiredSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/authenticate/connect?authSessionID=gone", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Error Signing In</title>")
	assert.Contains(t, w.Body.String(), "Your sign in session has expired, please sign in again.")
	assert.NotContains(t, w.Body.String(), "<form")
}

func TestConnectPage_Localized(t *testing.T) {
	env := newTestEnv(t)
	env.seedAuthSession(t, "as-1")

	req := httptest.NewRequest(http.MethodGet, "/authenticate/connect?authSessionID=as-1", nil)
	req.Header.Set("Accept-Language", "fr-CA,fr;q=0.9,en;q=0.5")

	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Votre compte Google</title>")
	assert.Contains(t, w.Body.String(), `<html lang="fr">`)
}

func TestConnectState_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.seedAuthSession(t, "as-1")

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/authenticate/connect?authSessionID=as-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var p connect.Payload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "linkUser", p.Step)
	assert.Equal(t, "as-1", p.AuthSessionID)
	require.NotNil(t, p.LinkUser)
	assert.Equal(t, googleUser, p.LinkUser.SSOUser)
	assert.True(t, p.LinkUser.Config.RequirePassword)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/authenticate/connect", nil))
	require.Equal(t, http.StatusOK, w.Code)
	p = connect.Payload{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Empty(t, p.Step)
	assert.Nil(t, p.LinkUser)
	assert.Equal(t, "Your sign in session has expired, please sign in again.", p.Error)
}

func registerRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/authenticate/connect", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func registerValues() url.Values {
	return url.Values{
		"authSessionID": {"as-1"},
		"name":          {"Ada Lovelace"},
		"email":         {"ada@example.com"},
		"password":      {"correct horse battery"},
		"agreeToTerms":  {"1"},
	}
}

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(t)
	env.seedAuthSession(t, "as-1")

	w := env.do(registerRequest(registerValues()))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	assert.Equal(t, linker.Request{
		SSOUser:      googleUser,
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		Password:     "correct horse battery",
		AgreeToTerms: true,
	}, env.linker.got)
	assert.Equal(t, 10, env.linker.gotCfg.PasswordMinLength)

	_, err := env.authSessions.Get(context.Background(), "as-1")
	assert.ErrorIs(t, err, authsession.ErrNotFound)

	c := cookieNamed(w, session.DevCookieName)
	require.NotNil(t, c)
	sess, err := env.sessions.Get(context.Background(), c.Value)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "user-new", sess.UserID)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LinkOutcomesTotal.WithLabelValues("linked")))
}

func TestRegister_Failures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
		kind   string
	}{
		{"email taken", linker.ErrEmailTaken, http.StatusConflict, "That email is already in use.", "conflict"},
		{"already linked", linker.ErrIdentityLinked, http.StatusConflict, "This account is already connected.", "conflict"},
		{"double submit", fmt.Errorf("%w: %w", linker.ErrIdentityLinked, &pq.Error{Code: "23505", Constraint: "identities_provider_unique"}), http.StatusConflict, "This account is already connected.", "conflict"},
		{"short password", linker.ErrPasswordTooShort, http.StatusBadRequest, "Password must be at least 10 characters.", "validation"},
		{"terms", linker.ErrTermsNotAccepted, http.StatusBadRequest, "You must agree to the terms of service.", "validation"},
		{"name edit", linker.ErrNameEditForbidden, http.StatusBadRequest, "An error has occurred, please try again.", "validation"},
		{"storage", errors.New("pq: connection refused"), http.StatusInternalServerError, "An error has occurred, please try again.", "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seedAuthSession(t, "as-1")
			env.linker.err = tt.err

			w := env.do(registerRequest(registerValues()))
			assert.Equal(t, tt.status, w.Code)

			body := w.Body.String()
			assert.Contains(t, body, "<title>Error Signing In</title>")
			assert.Contains(t, body, tt.body)
			assert.NotContains(t, body, "pq:")
			assert.Nil(t, cookieNamed(w, session.DevCookieName))

			// the auth session survives a failed attempt
			_, err := env.authSessions.Get(context.Background(), "as-1")
			assert.NoError(t, err)

			assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LinkOutcomesTotal.WithLabelValues(tt.kind)))
		})
	}
}

func TestRegister_ExpiredSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(registerRequest(registerValues()))
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), "Your sign in session has expired, please sign in again.")
	assert.Zero(t, env.linker.calls)
}

func TestRegister_MalformedForm(t *testing.T) {
	env := newTestEnv(t)
	env.seedAuthSession(t, "as-1")

	values := registerValues()
	values.Set("agreeToTerms", "maybe")

	w := env.do(registerRequest(values))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "An error has occurred, please try again.")
	assert.Zero(t, env.linker.calls)
}

func TestPasswordLogin(t *testing.T) {
	env := newTestEnv(t)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return env.do(req)
	}

	assert.Equal(t, http.StatusBadRequest, post(`{"email":""}`).Code)

	env.credentials.err = credentials.ErrInvalidCredentials
	assert.Equal(t, http.StatusUnauthorized, post(`{"email":"ada@example.com","password":"nope"}`).Code)

	env.credentials.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, post(`{"email":"ada@example.com","password":"nope"}`).Code)

	env.credentials.err = nil
	env.credentials.userID = "user-1"
	w := post(`{"email":"ada@example.com","password":"correct horse battery"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, cookieNamed(w, session.DevCookieName))
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.sessions.Create(context.Background(), session.Session{
		SessionID: "sid-1",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: session.DevCookieName, Value: "sid-1"})

	w := env.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	c := cookieNamed(w, session.DevCookieName)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)

	sess, err := env.sessions.Get(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Nil(t, sess)

	// idempotent
	assert.Equal(t, http.StatusNoContent, env.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil)).Code)
}

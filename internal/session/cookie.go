package session

import (
	"net/http"
	"time"
)

const (
	// CookieName uses the __Host- prefix, which browsers only accept with
	// Secure set, Path=/ and no Domain.
	CookieName = "__Host-session"

	// DevCookieName is used when cookies are not Secure (plain http in dev).
	DevCookieName = "session"
)

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
}

// DefaultCookieOptions returns the options used for session cookies.
func DefaultCookieOptions(secure bool) CookieOptions {
	return CookieOptions{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Name returns the cookie name matching the options.
func (o CookieOptions) Name() string {
	if o.Secure {
		return CookieName
	}
	return DevCookieName
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	o.HttpOnly = true
	return o
}

// SetCookie issues the session cookie to the client.
func SetCookie(w http.ResponseWriter, sessionID string, expiresAt time.Time, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name(),
		Value:    sessionID,
		Path:     opts.Path,
		Expires:  expiresAt,
		HttpOnly: opts.HttpOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name(),
		Value:    "",
		Path:     opts.Path,
		MaxAge:   -1,
		HttpOnly: opts.HttpOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ReadCookie returns the session id sent by the client, if any.
func ReadCookie(r *http.Request, opts CookieOptions) string {
	c, err := r.Cookie(opts.Name())
	if err != nil {
		return ""
	}
	return c.Value
}

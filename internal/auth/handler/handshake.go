package handler

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"time"

	"sso-connect/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	stateCookieName = "__oauth_state"
	pkceCookieName  = "__oauth_pkce"
	handshakeTTL    = 5 * time.Minute
)

// beginHandshake issues the state and PKCE verifier cookies and returns
// the state and S256 code challenge for the authorization URL.
func (h *Handler) beginHandshake(c *gin.Context) (state string, challenge string, err error) {
	state, err = utils.RandomToken(utils.TokenSize)
	if err != nil {
		return "", "", err
	}
	verifier, err := utils.RandomToken(utils.TokenSize)
	if err != nil {
		return "", "", err
	}

	h.setHandshakeCookie(c, stateCookieName, state, int(handshakeTTL.Seconds()))
	h.setHandshakeCookie(c, pkceCookieName, verifier, int(handshakeTTL.Seconds()))

	return state, pkceChallenge(verifier), nil
}

// finishHandshake checks the returned state against its cookie and
// returns the PKCE verifier. Both cookies are single use.
func (h *Handler) finishHandshake(c *gin.Context) (verifier string, ok bool) {
	defer func() {
		h.setHandshakeCookie(c, stateCookieName, "", -1)
		h.setHandshakeCookie(c, pkceCookieName, "", -1)
	}()

	state := c.Query("state")
	cookie, err := c.Cookie(stateCookieName)
	if state == "" || err != nil || subtle.ConstantTimeCompare([]byte(state), []byte(cookie)) != 1 {
		return "", false
	}

	verifier, err = c.Cookie(pkceCookieName)
	if err != nil || verifier == "" {
		return "", false
	}
	return verifier, true
}

func (h *Handler) setHandshakeCookie(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func pkceChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

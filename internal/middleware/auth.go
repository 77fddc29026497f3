package middleware

import (
	"context"
	"net/http"
	"time"

	"sso-connect/internal/logger"
	"sso-connect/internal/session"

	"go.uber.org/zap"
)

// unexported, collision-proof context key
type userIDContextKeyType struct{}

var userIDKey = userIDContextKeyType{}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// WithUserID attaches an authenticated user ID to ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

type AuthMiddleware struct {
	Store  session.Store
	Cookie session.CookieOptions
	now    func() time.Time
}

func NewAuthMiddleware(store session.Store, cookie session.CookieOptions) *AuthMiddleware {
	return &AuthMiddleware{Store: store, Cookie: cookie, now: time.Now}
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := session.ReadCookie(r, a.Cookie)
		if sessionID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sess, err := a.Store.Get(r.Context(), sessionID)
		if err != nil {
			logger.From(r.Context()).Warn("session lookup failed", zap.Error(err))
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if sess == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Redis TTL is not trusted alone.
		if a.now().After(sess.ExpiresAt) {
			_ = a.Store.Delete(r.Context(), sessionID)
			session.ClearCookie(w, a.Cookie)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), sess.UserID)))
	})
}

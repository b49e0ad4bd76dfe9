// Package middleware contains HTTP middleware for the outreach application.
// Each middleware is a func(http.Handler) http.Handler; compose them with Stack.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/outreach/internal/auth"
	"github.com/DukeRupert/outreach/internal/domain"
	"github.com/DukeRupert/outreach/internal/handler"
	"github.com/DukeRupert/outreach/internal/session"
)

// SessionResolver looks up the user behind a raw session token.
// service.AuthService implements it.
type SessionResolver interface {
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware resolves session cookies and guards signed-in routes.
type AuthMiddleware struct {
	sessions SessionResolver
	logger   *slog.Logger
	isSecure bool
}

// NewAuthMiddleware creates a new AuthMiddleware. isSecure controls the
// Secure flag on the cleared cookie.
func NewAuthMiddleware(sessions SessionResolver, logger *slog.Logger, isSecure bool) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		logger:   logger,
		isSecure: isSecure,
	}
}

// WithUser puts the session's user into the request context and always
// calls next. A cookie the store rejects is cleared; on lookup failures the
// request simply continues anonymous.
// It runs once for the whole mux; handlers read the user with
// auth.FromRequest.
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.sessions.GetBySessionToken(r.Context(), cookie.Value)
		if err != nil {
			// Only a rejected session loses its cookie; a store outage must
			// not sign everyone out.
			if domain.ErrorCode(err) == domain.EUNAUTHORIZED {
				m.logger.Debug("discarding session cookie", "error", err)
				session.ClearCookie(w, m.isSecure)
			} else {
				m.logger.Error("session lookup failed", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), user)))
	})
}

// RequireUser rejects requests that WithUser left anonymous. API callers
// get a JSON 401; browsers are sent back to the sign-in page.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.FromRequest(r) != nil {
			next.ServeHTTP(w, r)
			return
		}

		if isAPIRequest(r) {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}

// isAPIRequest decides between a JSON 401 and a redirect.
func isAPIRequest(r *http.Request) bool {
	return handler.AcceptsJSON(r)
}

// Stack composes middleware. The first argument is the outermost: it runs
// first on the request and last on the response.
//
//	chain := Stack(Recovery(logger), RequestID, loggingMw.Handler)
//	server.Handler = chain(mux)
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithUser
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireUser
)

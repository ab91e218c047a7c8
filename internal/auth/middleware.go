package auth

import (
	"context"
	"net/http"

	"github.com/dferrin/lockbox/internal/models"
	pkghttp "github.com/dferrin/lockbox/pkg/http"
)

type contextKey string

const (
	// UserContextKey holds the authenticated *models.User
	UserContextKey contextKey = "user"
	// SessionContextKey holds the resolved *models.Session
	SessionContextKey contextKey = "session"
)

// SessionResolver resolves an opaque session token to its user and session
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, *models.Session, error)
}

// RequireSession authenticates requests via the session cookie. A missing,
// unknown, or expired session rejects with 401 before the handler runs.
func RequireSession(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := GetSessionTokenCookie(r)
			if err != nil || token == "" {
				pkghttp.WriteUnauthorized(w, "Missing or invalid session")
				return
			}

			user, session, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Missing or invalid session")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			ctx = context.WithValue(ctx, SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the authenticated user set by RequireSession,
// or nil when the request is unauthenticated.
func GetUserFromContext(r *http.Request) *models.User {
	user, _ := r.Context().Value(UserContextKey).(*models.User)
	return user
}

// GetSessionFromContext returns the resolved session set by RequireSession.
func GetSessionFromContext(r *http.Request) *models.Session {
	session, _ := r.Context().Value(SessionContextKey).(*models.Session)
	return session
}

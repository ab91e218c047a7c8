package middleware

import (
	"log/slog"
	"net/http"

	"github.com/dferrin/lockbox/internal/auth"
	"github.com/dferrin/lockbox/internal/models"
	pkghttp "github.com/dferrin/lockbox/pkg/http"
)

// CSRFHeader is the request header that must echo the CSRF cookie value
const CSRFHeader = "X-CSRF-Token"

// CSRFValidator checks a provided token against a session's CSRF secret
type CSRFValidator interface {
	ValidateCSRF(session *models.Session, provided string) bool
}

// CSRFProtection validates the CSRF token on state-changing requests.
// Reads pass through untouched; POST, PUT, DELETE, and PATCH require the
// X-CSRF-Token header to match the session's CSRF secret. Runs after
// RequireSession so the session is already in context.
func CSRFProtection(validator CSRFValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			session := auth.GetSessionFromContext(r)
			provided := r.Header.Get(CSRFHeader)

			if session == nil || !validator.ValidateCSRF(session, provided) {
				logger.Warn("CSRF token missing or invalid",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				pkghttp.WriteForbidden(w, "CSRF token missing or invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isStateChangingMethod checks if the HTTP method modifies state
func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}

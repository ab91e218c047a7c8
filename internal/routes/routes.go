package routes

import (
	"log/slog"
	"net/http"

	"github.com/dferrin/lockbox/internal/auth"
	"github.com/dferrin/lockbox/internal/config"
	"github.com/dferrin/lockbox/internal/database"
	"github.com/dferrin/lockbox/internal/handlers"
	custommw "github.com/dferrin/lockbox/internal/middleware"
	"github.com/dferrin/lockbox/internal/services"
	pkghttp "github.com/dferrin/lockbox/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Dependencies holds everything the router needs
type Dependencies struct {
	Config         *config.Config
	DB             *database.DB
	AuthHandler    *handlers.AuthHandler
	SecretsHandler *handlers.SecretsHandler
	SessionService *services.SessionService
	Logger         *slog.Logger
}

// Setup builds the full route tree: open auth endpoints behind a per-IP rate
// limit, and the vault endpoints behind session resolution with CSRF
// enforcement on mutations.
func Setup(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommw.SecureLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(custommw.SecurityHeaders(custommw.SecurityHeadersConfig{Env: deps.Config.Server.Env}))
	r.Use(custommw.CORS(custommw.CORSConfig{
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
	}))

	r.Get("/health", healthHandler(deps.DB))

	requireSession := auth.RequireSession(deps.SessionService)
	csrfProtect := custommw.CSRFProtection(deps.SessionService, deps.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(custommw.RateLimitByIP(custommw.DefaultAuthRateLimit()))
				r.Post("/register", deps.AuthHandler.Register)
				r.Post("/login", deps.AuthHandler.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireSession)
				r.Get("/me", deps.AuthHandler.Me)
				r.Post("/logout", deps.AuthHandler.Logout)
			})
		})

		r.Route("/password", func(r chi.Router) {
			r.Use(requireSession)

			r.Get("/list", deps.SecretsHandler.List)
			r.Get("/show/{id}", deps.SecretsHandler.Show)

			r.Group(func(r chi.Router) {
				r.Use(csrfProtect)
				r.Post("/add", deps.SecretsHandler.Add)
				r.Put("/edit/{id}", deps.SecretsHandler.Edit)
				r.Delete("/delete/{id}", deps.SecretsHandler.Delete)
			})
		})
	})

	return r
}

func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context()); err != nil {
			pkghttp.WriteError(w, http.StatusServiceUnavailable, "unhealthy", "database unreachable")
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dferrin/lockbox/internal/auth"
	"github.com/dferrin/lockbox/internal/models"
	"github.com/dferrin/lockbox/internal/services"
	pkghttp "github.com/dferrin/lockbox/pkg/http"
)

// AuthProvider is the slice of the auth service the handler consumes
type AuthProvider interface {
	Register(ctx context.Context, username, email, password string) (*services.LoginResult, error)
	Login(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler serves the /api/auth endpoints
type AuthHandler struct {
	service      AuthProvider
	cookieConfig auth.CookieConfig
	ipConfig     *pkghttp.IPConfig
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthProvider, cookieConfig auth.CookieConfig, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieConfig: cookieConfig,
		ipConfig:     ipConfig,
		logger:       logger,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteError(w, http.StatusBadRequest, "email_exists", "An account with this email already exists")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid registration details")
		default:
			h.logger.Error("registration failed", slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Registration failed")
		}
		return
	}

	h.setSessionCookies(w, result)
	pkghttp.WriteJSON(w, http.StatusCreated, authResponse{Success: true, Username: result.User.Username})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	clientIP := pkghttp.ExtractClientIP(r, h.ipConfig)

	result, err := h.service.Login(r.Context(), req.Email, req.Password, clientIP)
	if err != nil {
		var authFailed *services.AuthFailedError
		var locked *services.LockedError
		switch {
		case errors.As(err, &locked):
			// Deliberately omits the unlock time
			pkghttp.WriteError(w, http.StatusForbidden, "account_locked",
				"Account temporarily locked due to repeated failed logins")
		case errors.As(err, &authFailed):
			writeInvalidCredentials(w, authFailed.AttemptsLeft)
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Email and password are required")
		default:
			h.logger.Error("login failed", slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Login failed")
		}
		return
	}

	h.setSessionCookies(w, result)
	pkghttp.WriteJSON(w, http.StatusOK, authResponse{Success: true, Username: result.User.Username})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Missing or invalid session")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, authResponse{Success: true, Username: user.Username})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := auth.GetSessionTokenCookie(r)
	if err == nil && token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			h.logger.Warn("failed to revoke session on logout", slog.Any("error", err))
		}
	}

	auth.ClearSessionCookie(w, h.cookieConfig)
	auth.ClearCSRFCookie(w, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, result *services.LoginResult) {
	auth.SetSessionCookie(w, result.Session.Token, result.Session.ExpiresAt, h.cookieConfig)
	auth.SetCSRFCookie(w, result.Session.CSRFSecret, result.Session.ExpiresAt, h.cookieConfig)
}

type invalidCredentialsResponse struct {
	Success      bool   `json:"success"`
	Error        string `json:"error"`
	Message      string `json:"message"`
	AttemptsLeft *int   `json:"attempts_left,omitempty"`
}

func writeInvalidCredentials(w http.ResponseWriter, attemptsLeft int) {
	resp := invalidCredentialsResponse{
		Success: false,
		Error:   "invalid_credentials",
		Message: "Invalid email or password",
	}
	if attemptsLeft >= 0 {
		resp.AttemptsLeft = &attemptsLeft
	}
	pkghttp.WriteJSON(w, http.StatusUnauthorized, resp)
}

package auth

import (
	"net/http"
	"time"
)

const (
	SessionCookieName = "session_token"
	CSRFCookieName    = "csrf_token"
)

// CookieConfig holds cookie configuration settings
type CookieConfig struct {
	Domain   string // Empty string = current host only
	Secure   bool   // HTTPS only
	SameSite string // "strict", "lax", or "none"
}

// SetSessionCookie sets the opaque session token in an httpOnly cookie
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, config CookieConfig) {
	maxAge := int(time.Until(expiresAt).Seconds())
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.Domain,
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: true, // Critical: prevents JavaScript access (XSS protection)
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	}
	http.SetCookie(w, cookie)
}

// SetCSRFCookie sets the CSRF secret in a readable cookie (not httpOnly).
// JavaScript needs to read this and echo it in the X-CSRF-Token header.
func SetCSRFCookie(w http.ResponseWriter, csrfSecret string, expiresAt time.Time, config CookieConfig) {
	maxAge := int(time.Until(expiresAt).Seconds())
	cookie := &http.Cookie{
		Name:     CSRFCookieName,
		Value:    csrfSecret,
		Path:     "/",
		Domain:   config.Domain,
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	}
	http.SetCookie(w, cookie)
}

// ClearSessionCookie clears the session token cookie
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1, // Negative MaxAge deletes the cookie
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	}
	http.SetCookie(w, cookie)
}

// ClearCSRFCookie clears the CSRF cookie
func ClearCSRFCookie(w http.ResponseWriter, config CookieConfig) {
	cookie := &http.Cookie{
		Name:     CSRFCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: false,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	}
	http.SetCookie(w, cookie)
}

// GetSessionTokenCookie retrieves the session token from cookies
func GetSessionTokenCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// parseSameSite converts string to http.SameSite constant
func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}

// DefaultCookieConfig returns the cookie policy for an environment
func DefaultCookieConfig(env string) CookieConfig {
	return CookieConfig{
		Secure:   env == "production",
		SameSite: "lax",
	}
}

package middleware

import "net/http"

// SecurityHeadersConfig holds security headers configuration
type SecurityHeadersConfig struct {
	Env string
}

// SecurityHeaders returns a middleware that adds security headers to all responses
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			// MIME sniffing prevention
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Controls how much referrer information is shared
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			var csp string
			if config.Env == "production" {
				csp = "default-src 'self'; " +
					"script-src 'self'; " +
					"style-src 'self' 'unsafe-inline'; " +
					"img-src 'self' data:; " +
					"connect-src 'self'; " +
					"frame-ancestors 'none'; " +
					"base-uri 'self'; " +
					"form-action 'self'"
			} else {
				csp = "default-src 'self' http: https: ws:; " +
					"script-src 'self' 'unsafe-inline' 'unsafe-eval' http: https: ws:; " +
					"style-src 'self' 'unsafe-inline' http: https:; " +
					"img-src 'self' data: https: http:; " +
					"connect-src 'self' http: https: ws: wss:; " +
					"frame-ancestors 'self'; " +
					"base-uri 'self'; " +
					"form-action 'self'"
			}
			w.Header().Set("Content-Security-Policy", csp)

			// HSTS only for HTTPS connections in production
			if config.Env == "production" && (r.Header.Get("X-Forwarded-Proto") == "https" || r.URL.Scheme == "https") {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")

			next.ServeHTTP(w, r)
		})
	}
}

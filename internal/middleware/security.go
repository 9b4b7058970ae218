// internal/middleware/security.go
//
// Security-header middleware.
//
// Sets baseline headers on every response:
//
//   • Strict-Transport-Security  –  forces HTTPS (2 years)
//   • Content-Security-Policy   –  self-only, except that frames may load
//                                   any https origin (designs and live
//                                   deployments are hosted elsewhere)
//   • X-Frame-Options           –  same-origin framing only
//   • X-Content-Type-Options    –  MIME-sniffing defence
//   • Referrer-Policy           –  drops path/query from Referer
//   • Permissions-Policy        –  disables powerful features by default
//
// Notes
// -----
// • Headers are set *before* next.ServeHTTP, because anything added after
//   the handler writes is never sent.  Handlers that need a looser policy
//   (the preview proxy) overwrite the value with Header().Set.
// • Oxford commas, two spaces after periods.

package middleware

import "net/http"

// Header values, exported so handlers can derive their own.
const (
	HSTS = "max-age=63072000; includeSubDomains"
	CSP  = "default-src 'self'; img-src 'self' data: https:; style-src 'self' 'unsafe-inline'; " +
		"frame-src 'self' https:; object-src 'none'; base-uri 'self'; frame-ancestors 'self'"
)

// Security sets security headers for every response.
func Security(next http.Handler) http.Handler {
	const (
		xfo   = "SAMEORIGIN"
		nosn  = "nosniff"
		refer = "strict-origin-when-cross-origin"
		perm  = "geolocation=(), microphone=(), camera=()"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", HSTS)
		}
		h.Set("Content-Security-Policy", CSP)
		h.Set("X-Frame-Options", xfo)
		h.Set("X-Content-Type-Options", nosn)
		h.Set("Referrer-Policy", refer)
		h.Set("Permissions-Policy", perm)

		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"net/http"

	"github.com/AnshRaj112/mindjournal-backend/pkg/clientip"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerReferrerPolicy          = "Referrer-Policy"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
	headerCacheControl            = "Cache-Control"
)

// SecurityHeaders sets security-related response headers. Journal content
// is private, so responses are never cached.
func SecurityHeaders(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(headerXContentTypeOptions, "nosniff")
			h.Set(headerXFrameOptions, "DENY")
			h.Set(headerReferrerPolicy, "no-referrer")
			h.Set(headerContentSecurityPolicy, "default-src 'none'; frame-ancestors 'none'")
			h.Set(headerCacheControl, "no-store")
			if production {
				h.Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

var credentialPaths = map[string]bool{
	"/api/auth/signin": true,
	"/api/auth/signup": true,
}

// CredentialThrottle applies l only to sign-in and sign-up. Use after
// RateLimit.
func CredentialThrottle(l Limiter, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !credentialPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			allowed, _, err := l.Allow(r.Context(), "auth:"+clientip.RealClientIP(r, trustProxy))
			if err == nil && !allowed {
				tooManyRequests(w, "Too many login attempts. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

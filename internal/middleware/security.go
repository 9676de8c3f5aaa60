package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/Trinaxus/TON.BAND/internal/ctxkeys"
)

// SecurityHeaders sets CSP and the usual hardening headers. Gallery media is
// loaded from the file host, cover images from the S3 endpoint.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", contentSecurityPolicy(r))

		cfg := ctxkeys.Config(r.Context())
		if cfg != nil && cfg.IsProduction() {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

func contentSecurityPolicy(r *http.Request) string {
	media := []string{"'self'", "data:", "blob:"}
	if cfg := ctxkeys.Config(r.Context()); cfg != nil {
		for _, raw := range []string{cfg.FileAPIBaseURL, cfg.S3Endpoint} {
			if origin := originOf(raw); origin != "" {
				media = append(media, origin)
			}
		}
	}
	script := "'self'"
	if nonce := GetNonce(r.Context()); nonce != "" {
		script += " 'nonce-" + nonce + "'"
	}

	return strings.Join([]string{
		"default-src 'self'",
		"script-src " + script,
		"style-src 'self' 'unsafe-inline'",
		"img-src " + strings.Join(media, " "),
		"media-src " + strings.Join(media, " "),
		"base-uri 'none'",
		"frame-ancestors 'none'",
		"form-action 'self'",
	}, "; ")
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

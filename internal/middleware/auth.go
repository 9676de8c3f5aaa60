package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Trinaxus/TON.BAND/internal/ctxkeys"
	"github.com/Trinaxus/TON.BAND/internal/service"
)

// Auth verifies the session cookie and adds the principal to the context.
// The role always comes from the user table, never from the token.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(service.SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := authService.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, service.ErrInvalidSession) {
					authService.ClearSessionCookie(w)
				} else {
					// user table unreachable: serve anonymously, keep the cookie
					slog.Warn("session reload failed", "error", err, "path", r.URL.Path)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.Principal(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Nicht angemeldet")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := ctxkeys.Principal(r.Context())
		if principal == nil {
			writeError(w, http.StatusUnauthorized, "Nicht angemeldet")
			return
		}
		if !principal.IsAdmin() {
			slog.Warn("admin route denied", "user_id", principal.UserID, "path", r.URL.Path)
			writeError(w, http.StatusForbidden, "Keine Berechtigung")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/abgdnv/catalog/pkg/auth"
)

// AccessTokenCookie is the cookie checked when no Authorization header is sent.
const AccessTokenCookie = "accessToken"

// Authenticate verifies the caller's token and stores the identity in the request context.
// Requests without a valid token are rejected with 401.
func Authenticate(verifier auth.Verifier, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				RespondError(w, logger, http.StatusUnauthorized, "Unauthorized - No access token provided")
				return
			}
			token, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				logger.WarnContext(r.Context(), "token verification failed", "error", err)
				RespondError(w, logger, http.StatusUnauthorized, "Unauthorized - Invalid access token")
				return
			}
			id, err := auth.IdentityFromToken(token)
			if err != nil {
				RespondError(w, logger, http.StatusUnauthorized, "Unauthorized - Invalid access token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// StaticIdentity injects a fixed identity. Used when authentication is disabled.
func StaticIdentity(id auth.Identity) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole rejects requests whose identity does not carry role.
func RequireRole(role string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				RespondError(w, logger, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if !id.HasRole(role) {
				RespondError(w, logger, http.StatusForbidden, "Access denied - Admin only")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

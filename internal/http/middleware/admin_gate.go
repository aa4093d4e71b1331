package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tablevine/reservations/internal/http/response"
	"github.com/tablevine/reservations/pkg/auth"
	"github.com/tablevine/reservations/pkg/logger"
)

// Authenticator validates a bearer credential and yields the identity behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// AdminDirectory answers whether an authenticated email is on the admin allowlist.
type AdminDirectory interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

type adminEmailKey struct{}

// RequireAdmin is the gate in front of every mutating admin operation. The two
// checks are ordered and never collapsed: a missing or invalid credential is
// 401, a valid credential whose email is not on the allowlist is 403. Nothing
// is cached; each request re-validates both.
func RequireAdmin(authn Authenticator, admins AdminDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			identity, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			isAdmin, err := admins.IsAdmin(r.Context(), identity.Email)
			if err != nil {
				logger.ErrorContext(r.Context(), "Admin allowlist lookup failed", "error", err)
				response.InternalError(w, "Failed to verify admin access")
				return
			}
			if !isAdmin {
				response.Forbidden(w, "Admin access required")
				return
			}

			ctx := context.WithValue(r.Context(), logger.AdminEmailKey, identity.Email)
			ctx = context.WithValue(ctx, adminEmailKey{}, identity.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminEmail returns the gated admin's email, or "" outside the gate.
func AdminEmail(r *http.Request) string {
	if email, ok := r.Context().Value(adminEmailKey{}).(string); ok {
		return email
	}
	return ""
}

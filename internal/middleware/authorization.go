package middleware

import (
	"net/http"
	"slices"

	"tanepro-b2b/internal/domain"

	"go.uber.org/zap"
)

// RequireAdmin middleware ensures the user has admin role
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, domain.RoleAdmin)
}

// RequireRole middleware ensures the resolved profile has one of the
// allowed roles. Anonymous requests get 401.
func RequireRole(logger *zap.Logger, allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, ok := CurrentProfile(r.Context())
			if !ok {
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !slices.Contains(allowed, profile.Role) {
				logger.Warn("User role not authorized",
					zap.String("user_id", profile.ID),
					zap.String("role", string(profile.Role)),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

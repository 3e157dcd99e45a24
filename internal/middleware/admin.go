package middleware

import (
	"net/http"

	"chodewars-server/internal/auth"
	"chodewars-server/internal/shared/errors"
	"chodewars-server/internal/shared/response"
)

// RequireAdmin authenticates the request and rejects non-admin players.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := a.logger.With(
			"middleware", "admin",
			"method", r.Method,
			"path", r.URL.Path,
		)

		claims := GetUserFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		if claims.Role != auth.RoleAdmin {
			response.Error(w, r, logger, errors.Forbidden("admin access required"))
			return
		}

		logger.Debug("Admin access granted", "player_id", claims.PlayerID)
		next.ServeHTTP(w, r)
	}))
}

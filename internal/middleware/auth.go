package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"chodewars-server/internal/auth"
	"chodewars-server/internal/shared/cookies"
	"chodewars-server/internal/shared/errors"
	"chodewars-server/internal/shared/response"
)

type contextKey string

const UserContextKey contextKey = "user"

// Authenticator checks session tokens on incoming requests.
type Authenticator struct {
	tokens *auth.TokenIssuer
	logger *slog.Logger
}

func NewAuthenticator(tokens *auth.TokenIssuer, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		logger: logger.With("middleware", "jwt_auth"),
	}
}

// Require rejects requests without a valid token and stores the claims in
// the request context.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := a.logger.With(
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		token := cookies.AuthToken(r)
		if token == "" {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		claims, err := a.tokens.Validate(token)
		if err != nil {
			logger.Debug("Token validation failed", "error", err)
			response.Error(w, r, logger, errors.Unauthorized("invalid or expired token"))
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserFromContext(r *http.Request) *auth.Claims {
	claims, ok := r.Context().Value(UserContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

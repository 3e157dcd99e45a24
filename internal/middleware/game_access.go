package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"chodewars-server/internal/entity"
	"chodewars-server/internal/shared/errors"
	"chodewars-server/internal/shared/response"
)

const PlayerContextKey contextKey = "player"

// PlayerLookup loads a player record by id.
type PlayerLookup interface {
	Player(ctx context.Context, playerID string) (*entity.Entity, error)
}

// GameAccessMiddleware lets through only tokens whose player record exists.
type GameAccessMiddleware struct {
	auth    *Authenticator
	players PlayerLookup
	logger  *slog.Logger
}

func NewGameAccessMiddleware(a *Authenticator, players PlayerLookup, logger *slog.Logger) *GameAccessMiddleware {
	return &GameAccessMiddleware{
		auth:    a,
		players: players,
		logger:  logger.With("middleware", "game_access"),
	}
}

func (m *GameAccessMiddleware) Require(next http.Handler) http.Handler {
	return m.auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := m.logger.With("method", r.Method, "path", r.URL.Path)

		claims := GetUserFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		player, err := m.players.Player(r.Context(), claims.PlayerID)
		if err != nil {
			if errors.HasType(err, errors.ErrorTypeNotFound) {
				err = errors.Forbidden("no player registered for this account")
			}
			response.Error(w, r, logger, err)
			return
		}

		ctx := context.WithValue(r.Context(), PlayerContextKey, player)
		next.ServeHTTP(w, r.WithContext(ctx))
	}))
}

func GetPlayerFromContext(r *http.Request) *entity.Entity {
	player, ok := r.Context().Value(PlayerContextKey).(*entity.Entity)
	if !ok {
		return nil
	}
	return player
}

package server

import (
	"log/slog"
	"net/http"

	authHandlers "chodewars-server/internal/auth/handlers"
	gameHandlers "chodewars-server/internal/game/handlers"
	"chodewars-server/internal/middleware"
	serverHandlers "chodewars-server/internal/server/handlers"
	"chodewars-server/internal/shared/config"
)

type Routes struct {
	config     *config.Config
	health     *serverHandlers.HealthHandler
	players    *gameHandlers.PlayerHandler
	admin      *gameHandlers.AdminHandler
	googleAuth *authHandlers.OAuthHandler
	auth       *middleware.Authenticator
	access     *middleware.GameAccessMiddleware
	logger     *slog.Logger
}

func NewRoutes(
	cfg *config.Config,
	health *serverHandlers.HealthHandler,
	players *gameHandlers.PlayerHandler,
	admin *gameHandlers.AdminHandler,
	googleAuth *authHandlers.OAuthHandler,
	auth *middleware.Authenticator,
	access *middleware.GameAccessMiddleware,
	logger *slog.Logger,
) *Routes {
	return &Routes{
		config:     cfg,
		health:     health,
		players:    players,
		admin:      admin,
		googleAuth: googleAuth,
		auth:       auth,
		access:     access,
		logger:     logger.With("component", "routes"),
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()
	player := func(h http.HandlerFunc) http.Handler { return r.access.Require(h) }

	// Public endpoints
	mux.Handle("GET /api/server/health", r.health)

	// Player endpoints (authenticated, registered player)
	mux.Handle("GET /api/players/me", player(r.players.Me))
	mux.Handle("POST /api/players/me/home", player(r.players.AssignHome))
	mux.Handle("GET /api/players/me/warps", player(r.players.Warps))
	mux.Handle("POST /api/players/me/move", player(r.players.Move))
	mux.Handle("POST /api/players/me/transfer", player(r.players.Transfer))
	mux.Handle("GET /api/entities/{id}", player(r.players.Entity))

	// Admin-only endpoints
	mux.Handle("POST /api/admin/reset", r.auth.RequireAdmin(http.HandlerFunc(r.admin.Reset)))
	mux.Handle("POST /api/admin/bootstrap", r.auth.RequireAdmin(http.HandlerFunc(r.admin.Bootstrap)))

	// OAuth endpoints
	mux.HandleFunc("GET /auth/google", r.googleAuth.HandleAuth)
	mux.HandleFunc("GET /auth/google/callback", r.googleAuth.HandleCallback)
	mux.HandleFunc("POST /auth/logout", authHandlers.Logout(r.config))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health"},
		"player_endpoints", []string{"/api/players/me", "/api/players/me/home", "/api/players/me/warps", "/api/players/me/move", "/api/players/me/transfer", "/api/entities/{id}"},
		"admin_endpoints", []string{"/api/admin/reset", "/api/admin/bootstrap"},
		"auth_endpoints", []string{"/auth/google", "/auth/logout"},
	)

	return mux
}

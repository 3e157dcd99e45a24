package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"chodewars-server/internal/auth"
	authHandlers "chodewars-server/internal/auth/handlers"
	"chodewars-server/internal/auth/providers"
	gameHandlers "chodewars-server/internal/game/handlers"
	"chodewars-server/internal/middleware"
	"chodewars-server/internal/server"
	serverHandlers "chodewars-server/internal/server/handlers"
)

func runServer(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, logger := a.config, a.logger
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	logger.Info("Starting Chodewars server",
		"port", cfg.Server.Port,
		"environment", cfg.Server.Environment,
		"store_driver", cfg.Store.Driver)

	if _, err := a.game.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap universe: %w", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration)
	if err != nil {
		return err
	}
	states := auth.NewStateManager(logger)
	go states.Run(ctx, 5*time.Minute)

	if !cfg.GoogleOAuthConfigured() {
		logger.Warn("Google OAuth not configured, sign-in is disabled")
	}
	googleAuth := authHandlers.NewOAuthHandler(
		providers.NewGoogleProvider(cfg.OAuth.Google, logger),
		a.game, tokens, states, cfg, cfg.GoogleOAuthConfigured(), logger)

	authenticator := middleware.NewAuthenticator(tokens, logger)
	routes := server.NewRoutes(
		cfg,
		serverHandlers.NewHealthHandler(a.store, logger),
		gameHandlers.NewPlayerHandler(a.game, logger),
		gameHandlers.NewAdminHandler(a.game, logger),
		googleAuth,
		authenticator,
		middleware.NewGameAccessMiddleware(authenticator, a.game, logger),
		logger,
	)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, logger)
	go rateLimiter.Run(ctx, time.Minute)

	cors := middleware.NewCORS(cfg.Frontend, logger)
	handler := cors.Middleware(rateLimiter.Middleware(routes.Setup()))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

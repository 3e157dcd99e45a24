package main

import (
	"context"
	"fmt"
	"log/slog"

	"chodewars-server/internal/economy"
	"chodewars-server/internal/game"
	"chodewars-server/internal/graph"
	"chodewars-server/internal/sector"
	"chodewars-server/internal/shared/config"
	"chodewars-server/internal/shared/logger"
	"chodewars-server/internal/store"
)

// app holds the services every command needs.
type app struct {
	config *config.Config
	logger *slog.Logger
	store  store.Store
	game   *game.Service
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.Logging)

	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	universe := cfg.Universe.Universe
	g := graph.NewService(st, log)
	sectors := sector.NewService(st, g, sector.NewRand(cfg.Universe.Seed), cfg.Universe.SectorSearchAttempts, log)
	econ := economy.NewService(st, g, economy.NewCatalog(universe.CommodityConfigs()), log)

	return &app{
		config: cfg,
		logger: log,
		store:  st,
		game:   game.NewService(st, g, sectors, econ, universe, log),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("Failed to close store", "error", err)
	}
}

package store

import (
	"context"
	"fmt"
	"log/slog"

	"chodewars-server/internal/shared/config"
	"chodewars-server/internal/shared/database"
	sharedredis "chodewars-server/internal/shared/redis"
)

// Open connects the backend named by cfg.Store.Driver and initializes it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	logger.Info("Opening store", "component", "store", "driver", cfg.Store.Driver)

	var s Store
	switch cfg.Store.Driver {
	case config.StoreDriverFile:
		s = NewFileStore(cfg.Store.Path, logger)
	case config.StoreDriverSQLite, config.StoreDriverPostgres:
		db, err := database.Connect(ctx, cfg.Store.Driver, cfg, logger)
		if err != nil {
			return nil, err
		}
		s = NewSQLStore(db, logger)
	case config.StoreDriverRedis:
		client, err := sharedredis.Connect(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		s = NewRedisStore(client.Client, cfg.Redis.KeyPrefix, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err := s.Initialize(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return s, nil
}

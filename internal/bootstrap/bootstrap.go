// Package bootstrap opens the storage and session backends named in the config.
package bootstrap

import (
	"context"
	"fmt"

	"cleanbook/internal/config"
	"cleanbook/internal/database"
	"cleanbook/internal/domain"
	"cleanbook/internal/postgres"
	"cleanbook/internal/repository"

	"github.com/rs/zerolog"
)

var _ domain.Store = (*database.DB)(nil)

// OpenStore connects the configured booking and user store.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *zerolog.Logger) (domain.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := database.NewDB(cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
		}
		return db, nil
	case config.DriverPostgres:
		store, err := postgres.Connect(ctx, cfg.Postgres.DSN(), logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// OpenSessions returns the session store and a closer for its connections.
// Without a Redis address sessions live in process memory. With one, Redis is
// primary and memory takes over while it is unreachable.
func OpenSessions(ctx context.Context, cfg config.RedisConfig, logger *zerolog.Logger) (domain.SessionStore, func() error) {
	memory := repository.NewMemorySessionRepository()
	if cfg.Address == "" {
		logger.Info().Msg("redis not configured, sessions kept in memory")
		return memory, func() error { return nil }
	}

	client := repository.NewRedisClient(cfg)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Address).Msg("redis unreachable, using in-memory sessions until it recovers")
	} else {
		logger.Info().Str("addr", cfg.Address).Msg("redis connected")
	}

	store := repository.NewFailoverSessionRepository(repository.NewRedisSessionRepository(client), memory, logger)
	return store, func() error { return repository.Close(client) }
}

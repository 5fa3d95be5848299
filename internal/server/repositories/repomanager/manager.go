// Package repomanager opens the configured document backend and hands out
// its repository.
package repomanager

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tourcheck/internal/logging"
	"github.com/dmitrijs2005/tourcheck/internal/server/config"
	"github.com/dmitrijs2005/tourcheck/internal/server/repositories/documents"
	"github.com/sethvargo/go-retry"
)

// RepositoryManager owns a backend connection.
type RepositoryManager interface {
	Documents() documents.Repository
	// Ping checks that the backend answers.
	Ping(ctx context.Context) error
	Close() error
}

// connectBackoff bounds how long Open waits for a backend that is still
// starting (e.g. in docker compose).
var connectBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
}

// Open builds the manager for cfg.Storage and waits until it is reachable.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger) (RepositoryManager, error) {
	var (
		m   RepositoryManager
		err error
	)

	switch cfg.Storage {
	case config.StorageMemory, "":
		m = NewMemoryRepositoryManager()
	case config.StoragePostgres:
		m, err = NewPostgresRepositoryManager(cfg.DatabaseDSN)
	case config.StorageRedis:
		m = NewRedisRepositoryManager(cfg.RedisAddr, cfg.RedisKeyPrefix)
	case config.StorageS3:
		m, err = NewS3RepositoryManager(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
	if err != nil {
		return nil, err
	}

	if err := waitReady(ctx, m, log); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("storage %s not reachable: %w", cfg.Storage, err)
	}

	if pm, ok := m.(*PostgresRepositoryManager); ok {
		if err := pm.RunMigrations(ctx); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	log.Info(ctx, "storage ready", "backend", cfg.Storage)
	return m, nil
}

func waitReady(ctx context.Context, m RepositoryManager, log logging.Logger) error {
	return retry.Do(ctx, connectBackoff(), func(ctx context.Context) error {
		if err := m.Ping(ctx); err != nil {
			log.Warn(ctx, "storage not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

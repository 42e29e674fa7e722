// Package bootstrap opens the shared resources the API and cron worker
// both need.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/db"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/migrate"
	"github.com/angelmondragon/farmconnect-backend/pkg/redis"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
)

// Store is an opened snapshot store plus whatever it holds open.
type Store struct {
	*store.Store
	closers []func() error
}

// Close releases the resources opened for the store.
func (s *Store) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenStore builds the snapshot store for the configured driver. The redis
// client is only used by the redis driver.
func OpenStore(ctx context.Context, cfg *config.Config, logg *logger.Logger, redisClient *redis.Client) (*Store, error) {
	var (
		backend store.Backend
		closers []func() error
	)
	driver := strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch driver {
	case config.StoreDriverMemory:
		backend = store.NewMemoryBackend()
	case config.StoreDriverFile:
		fb, err := store.NewFileBackend(cfg.Store.Dir)
		if err != nil {
			return nil, err
		}
		backend = fb
	case config.StoreDriverRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis client required for store driver %q", driver)
		}
		backend = store.NewRedisBackend(redisClient, cfg.Store.MaxWriteAttempts)
	case config.StoreDriverSQL:
		dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		closers = append(closers, dbClient.Close)
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			_ = dbClient.Close()
			return nil, fmt.Errorf("run dev migrations: %w", err)
		}
		backend = store.NewSQLBackend(dbClient, cfg.Store.MaxWriteAttempts)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	st, err := store.New(backend, store.Options{Key: cfg.Store.Key, Logger: logg})
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"driver": driver, "key": st.Key()}), "store.opened")
	return &Store{Store: st, closers: closers}, nil
}

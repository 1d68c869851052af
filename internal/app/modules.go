// Package app holds the fx providers shared by the API process.
package app

import (
	"context"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/albapepper/matchplay/internal/api/handler"
	"github.com/albapepper/matchplay/internal/cache"
	"github.com/albapepper/matchplay/internal/config"
	"github.com/albapepper/matchplay/internal/db"
	"github.com/albapepper/matchplay/internal/events"
	"github.com/albapepper/matchplay/internal/listener"
	"github.com/albapepper/matchplay/internal/lock"
	"github.com/albapepper/matchplay/internal/logger"
	"github.com/albapepper/matchplay/internal/match"
	"github.com/albapepper/matchplay/internal/regen"
	"github.com/albapepper/matchplay/internal/store"
)

const connectTimeout = 15 * time.Second

func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(cfg.LogLevel)
}

func ProvidePool(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (*db.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Int("min_conns", cfg.DBPoolMinConns).Int("max_conns", cfg.DBPoolMaxConns).Msg("database connected")

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})
	return pool, nil
}

// ProvideLockPool opens the pool that holds advisory lock sessions.
func ProvideLockPool(lc fx.Lifecycle, cfg *config.Config) (*db.LockPool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := db.NewLockPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})
	return pool, nil
}

func ProvideStore(pool *db.Pool, cfg *config.Config) store.Store {
	return store.NewPostgresStore(pool.Pool, cfg.DBTimeout)
}

// ProvideLocker serializes a group inside this process first, then across
// processes with a Postgres advisory lock held on the lock pool.
func ProvideLocker(locks *db.LockPool, log zerolog.Logger) lock.Locker {
	return lock.Chain{lock.NewKeyed(), store.NewAdvisoryLocker(locks.Pool, log)}
}

func ProvideBus(lc fx.Lifecycle, log zerolog.Logger) *events.Bus {
	bus := events.NewBus(log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			bus.Close()
			return nil
		},
	})
	return bus
}

// ProvidePublisher fans local changes out to this process's bus and to every
// other process through NOTIFY. The listener feeds our own notifications
// back into the bus too; invalidating a group twice is harmless.
func ProvidePublisher(bus *events.Bus, pool *db.Pool, cfg *config.Config, log zerolog.Logger) events.Publisher {
	return events.Multi{bus, listener.NewNotifier(pool.Pool, cfg.DBTimeout, log)}
}

func ProvideService(st store.Store, locker lock.Locker, pub events.Publisher, cfg *config.Config, log zerolog.Logger) *match.Service {
	return match.NewService(st, locker, pub, clock.New(), cfg.LockTimeout, log.With().Str("component", "match").Logger())
}

func ProvideDriver(st store.Store, locker lock.Locker, pub events.Publisher, cfg *config.Config, log zerolog.Logger) *regen.Driver {
	return regen.NewDriver(st, locker, pub, clock.New(), cfg.LockTimeout, log.With().Str("component", "regen").Logger())
}

func ProvideCache(lc fx.Lifecycle, cfg *config.Config) *cache.Cache {
	c := cache.New(cfg.CacheEnabled)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			c.Close()
			return nil
		},
	})
	return c
}

func ProvideHandler(st store.Store, svc *match.Service, driver *regen.Driver, pool *db.Pool, c *cache.Cache, log zerolog.Logger) *handler.Handler {
	return handler.New(st, svc, driver, pool, c, log.With().Str("component", "http").Logger())
}

var Module = fx.Options(
	fx.Provide(config.Load),
	fx.Provide(ProvideLogger),
	fx.Provide(ProvidePool),
	fx.Provide(ProvideLockPool),
	fx.Provide(ProvideStore),
	fx.Provide(ProvideLocker),
	// events
	fx.Provide(ProvideBus),
	fx.Provide(ProvidePublisher),
	// services
	fx.Provide(ProvideService),
	fx.Provide(ProvideDriver),
	// http
	fx.Provide(ProvideCache),
	fx.Provide(ProvideHandler),
)

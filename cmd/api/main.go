// Command api is the Matchplay ratings API server.
//
// Usage:
//
//	matchplay-api
//	API_PORT=8080 matchplay-api

// @title Matchplay Ratings API
// @version 1.0.0
// @description Records 2v2 match results per group and serves Elo leaderboards, match history and maintenance operations.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Matchplay
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/albapepper/matchplay/internal/api"
	"github.com/albapepper/matchplay/internal/api/handler"
	"github.com/albapepper/matchplay/internal/app"
	"github.com/albapepper/matchplay/internal/cache"
	"github.com/albapepper/matchplay/internal/config"
	"github.com/albapepper/matchplay/internal/events"
	"github.com/albapepper/matchplay/internal/listener"
	"github.com/albapepper/matchplay/internal/maintenance"
	"github.com/albapepper/matchplay/internal/regen"
	"github.com/albapepper/matchplay/internal/store"

	_ "github.com/albapepper/matchplay/docs" // swagger docs
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	fx.New(
		app.Module,
		fx.Invoke(runBackground),
		fx.Invoke(runServer),
	).Run()
}

// runBackground starts the NOTIFY consumer, the cache invalidation watcher
// and the maintenance tickers for the lifetime of the app.
func runBackground(
	lc fx.Lifecycle,
	cfg *config.Config,
	bus *events.Bus,
	appCache *cache.Cache,
	st store.Store,
	driver *regen.Driver,
	logger zerolog.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			changes, unsubscribe := bus.Subscribe(64)
			go func() {
				defer unsubscribe()
				appCache.Watch(ctx, changes)
			}()

			go listener.Start(ctx, cfg.DatabaseURL, bus, logger.With().Str("component", "listener").Logger())
			go maintenance.Start(ctx, st, driver, maintenance.Config{
				AuditInterval: cfg.AuditInterval,
				AuditWorkers:  cfg.AuditWorkers,
			}, logger.With().Str("component", "maintenance").Logger())
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func runServer(lc fx.Lifecycle, h *handler.Handler, cfg *config.Config, logger zerolog.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(h, cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Info().
					Str("addr", addr).
					Str("environment", cfg.Environment).
					Str("docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort)).
					Msg("starting Matchplay ratings API")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	})
}

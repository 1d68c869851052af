// Package maintenance runs periodic background tasks as Go tickers inside
// the API process.
package maintenance

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/albapepper/matchplay/internal/regen"
	"github.com/albapepper/matchplay/internal/store"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	AuditInterval time.Duration // Dry-run regeneration of every group
	AuditWorkers  int
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, st store.Store, driver *regen.Driver, cfg Config, logger zerolog.Logger) {
	logger.Info().Dur("audit", cfg.AuditInterval).Int("workers", cfg.AuditWorkers).Msg("maintenance tickers started")

	if cfg.AuditInterval > 0 {
		t := time.NewTicker(cfg.AuditInterval)
		defer t.Stop()
		go runLoop(ctx, t.C, func() { audit(ctx, st, driver, cfg.AuditWorkers, logger) })
	}

	<-ctx.Done()
	logger.Info().Msg("maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// audit logs every group whose stored ratings drifted from a replay. It never
// repairs; that is an operator decision (cmd/regen).
func audit(ctx context.Context, st store.Store, driver *regen.Driver, workers int, logger zerolog.Logger) {
	report, err := regen.Audit(ctx, driver, st, workers)
	if err != nil {
		logger.Warn().Err(err).Msg("drift audit failed")
		return
	}
	for _, g := range report.Drifted {
		logger.Warn().Str("group_id", g).Msg("stored ratings drifted from match history")
	}
	for _, e := range report.Errors {
		logger.Warn().Str("error", e).Msg("drift audit could not replay group")
	}
}

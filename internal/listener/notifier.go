package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/albapepper/matchplay/internal/events"
)

// Notifier publishes events to every process listening on ratings_changed.
// Delivery is best effort: failures are logged, never returned.
type Notifier struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  zerolog.Logger
}

func NewNotifier(pool *pgxpool.Pool, timeout time.Duration, logger zerolog.Logger) *Notifier {
	return &Notifier{pool: pool, timeout: timeout, logger: logger}
}

func (n *Notifier) Publish(e events.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		n.logger.Warn().Err(err).Msg("failed to encode ratings event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	if _, err := n.pool.Exec(ctx, "notify", Channel, string(payload)); err != nil {
		n.logger.Warn().Err(err).Str("group_id", e.GroupID).Msg("failed to notify ratings change")
	}
}

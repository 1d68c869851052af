package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/albapepper/matchplay/internal/lock"
)

// AdvisoryLocker serializes work on a group across processes with a session
// level pg_advisory_lock. pool must not be the pool the locked work runs on:
// a holder keeps its connection until unlock, so a shared pool can run dry
// with every connection parked under a lock.
type AdvisoryLocker struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewAdvisoryLocker(pool *pgxpool.Pool, logger zerolog.Logger) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool, logger: logger}
}

// Lock blocks until the advisory lock of groupID is held or ctx ends.
func (l *AdvisoryLocker) Lock(ctx context.Context, groupID string) (func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("group %s: %w", groupID, lock.ErrTimeout)
		}
		return nil, &Error{Op: "acquire lock connection", Err: err}
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock(hashtextextended($1, 0))", groupID); err != nil {
		// A cancelled lock wait can leave the session in an unknown state.
		_ = conn.Conn().Close(context.Background())
		conn.Release()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("group %s: %w", groupID, lock.ErrTimeout)
		}
		return nil, &Error{Op: "advisory lock " + groupID, Err: err}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock(hashtextextended($1, 0))", groupID); err != nil {
			// Closing the session drops every lock it holds.
			l.logger.Warn().Err(err).Str("group_id", groupID).Msg("advisory unlock failed, closing connection")
			_ = conn.Conn().Close(ctx)
		}
		conn.Release()
	}, nil
}

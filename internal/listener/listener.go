// Package listener carries rating change events between processes over
// Postgres LISTEN/NOTIFY. Notifier publishes on the ratings_changed channel;
// Start holds a dedicated connection (not from the pool) that forwards every
// notification into a local publisher, typically the API's event bus.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/albapepper/matchplay/internal/events"
)

const (
	Channel          = "ratings_changed"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Start listens on the ratings_changed channel and reconnects on connection
// loss. Blocks until ctx is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, pub events.Publisher, logger zerolog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, pub, logger)
		if ctx.Err() != nil {
			logger.Info().Msg("ratings listener stopped")
			return
		}

		logger.Error().Err(err).Dur("backoff", backoff).Msg("ratings listener disconnected, reconnecting")

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, pub events.Publisher, logger zerolog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	logger.Info().Str("channel", Channel).Msg("ratings listener connected")

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		event, err := Decode(notification.Payload)
		if err != nil {
			logger.Warn().Err(err).Str("payload", notification.Payload).Msg("failed to parse ratings event")
			continue
		}
		logger.Debug().Str("kind", string(event.Kind)).Str("group_id", event.GroupID).Msg("ratings event received")
		pub.Publish(event)
	}
}

// Decode parses a ratings_changed payload.
func Decode(payload string) (events.Event, error) {
	var e events.Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return events.Event{}, err
	}
	if e.GroupID == "" {
		return events.Event{}, fmt.Errorf("event without group_id")
	}
	return e, nil
}

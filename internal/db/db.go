// Package db provides a pgxpool-based connection pool with prepared statement
// registration, health checking and schema migrations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/matchplay/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// LockPool holds the connections that carry advisory locks. It is separate
// from Pool so lock holders never compete with the work done under the lock.
type LockPool struct {
	*pgxpool.Pool
}

// NewLockPool creates the advisory lock pool. Its connections run raw SQL only
// and skip statement registration.
func NewLockPool(ctx context.Context, cfg *config.Config) (*LockPool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = 0
	poolCfg.MaxConns = int32(cfg.DBLockPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create lock pool: %w", err)
	}
	return &LockPool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

const matchColumns = `id, group_id, COALESCE(season_id, ''),
	team1_player1, team1_player2, team2_player1, team2_player2,
	score1, score2, played_at, created_at,
	pre_ratings, post_ratings, season_pre_ratings, season_post_ratings`

// Statements maps prepared statement names to their SQL. The store refers to
// statements by name only.
var Statements = map[string]string{
	"health_check": "SELECT 1",

	// Roster and seasons
	"list_groups":  "SELECT id FROM groups ORDER BY id",
	"list_players": "SELECT id, group_id, name, rating, matches_played, wins, losses FROM players WHERE group_id = $1 ORDER BY id",
	"get_season":   "SELECT id, group_id, name, starts_at, ends_at FROM seasons WHERE id = $1",
	"list_season_aggregates": `SELECT player_id, rating, matches_played, wins, losses, goals_for, goals_against
		FROM player_season_stats WHERE group_id = $1 AND season_id = $2`,

	// Matches
	"list_matches":        "SELECT " + matchColumns + " FROM matches WHERE group_id = $1",
	"list_season_matches": "SELECT " + matchColumns + " FROM matches WHERE group_id = $1 AND season_id = $2",
	"get_match":           "SELECT " + matchColumns + " FROM matches WHERE id = $1",
	"latest_match": "SELECT " + matchColumns + ` FROM matches WHERE group_id = $1
		ORDER BY played_at DESC, created_at DESC LIMIT 1`,
	"insert_match": `INSERT INTO matches (id, group_id, season_id,
			team1_player1, team1_player2, team2_player1, team2_player2,
			score1, score2, played_at, created_at,
			pre_ratings, post_ratings, season_pre_ratings, season_post_ratings)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
	"update_match": `UPDATE matches SET season_id = NULLIF($2, ''),
			team1_player1 = $3, team1_player2 = $4, team2_player1 = $5, team2_player2 = $6,
			score1 = $7, score2 = $8, played_at = $9, updated_at = NOW(),
			season_pre_ratings = CASE WHEN season_id IS NOT DISTINCT FROM NULLIF($2, '') THEN season_pre_ratings END,
			season_post_ratings = CASE WHEN season_id IS NOT DISTINCT FROM NULLIF($2, '') THEN season_post_ratings END
		WHERE id = $1`,
	"delete_match": "DELETE FROM matches WHERE id = $1",

	// Replay writes
	"write_player_aggregate": `UPDATE players
		SET rating = $2, matches_played = $3, wins = $4, losses = $5, updated_at = NOW()
		WHERE id = $1`,
	"write_season_aggregate": `INSERT INTO player_season_stats
			(player_id, season_id, group_id, rating, matches_played, wins, losses, goals_for, goals_against)
		SELECT $1, s.id, s.group_id, $3, $4, $5, $6, $7, $8 FROM seasons s WHERE s.id = $2
		ON CONFLICT (player_id, season_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			matches_played = EXCLUDED.matches_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			goals_for = EXCLUDED.goals_for,
			goals_against = EXCLUDED.goals_against,
			updated_at = NOW()`,
	"write_match_snapshot": `UPDATE matches SET pre_ratings = $2, post_ratings = $3, updated_at = NOW()
		WHERE id = $1`,
	"write_match_season_snapshot": `UPDATE matches SET season_pre_ratings = $2, season_post_ratings = $3, updated_at = NOW()
		WHERE id = $1`,
	"clear_match_season_snapshot": `UPDATE matches SET season_pre_ratings = NULL, season_post_ratings = NULL, updated_at = NOW()
		WHERE id = $1`,

	// Change notification
	"notify": "SELECT pg_notify($1, $2)",
}

func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/matchplay/internal/rating"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store over the prepared statements registered by
// the db package. Every call is bounded by timeout.
type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresStore(pool *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, timeout: timeout}
}

func (s *PostgresStore) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.timeout)
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *PostgresStore) ListGroups(ctx context.Context) ([]string, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, "list_groups")
	if err != nil {
		return nil, &Error{Op: "list groups", Err: err}
	}
	groups, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, &Error{Op: "list groups", Err: err}
	}
	return groups, nil
}

func (s *PostgresStore) ListPlayers(ctx context.Context, groupID string) ([]Player, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, "list_players", groupID)
	if err != nil {
		return nil, &Error{Op: "list players", Err: err}
	}
	players, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Player, error) {
		var p Player
		err := row.Scan(&p.ID, &p.GroupID, &p.Name,
			&p.State.Rating, &p.State.MatchesPlayed, &p.State.Wins, &p.State.Losses)
		return p, err
	})
	if err != nil {
		return nil, &Error{Op: "list players", Err: err}
	}
	return players, nil
}

func (s *PostgresStore) GetSeason(ctx context.Context, seasonID string) (*Season, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var season Season
	err := s.pool.QueryRow(ctx, "get_season", seasonID).
		Scan(&season.ID, &season.GroupID, &season.Name, &season.StartsAt, &season.EndsAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("season %s: %w", seasonID, ErrNotFound)
	}
	if err != nil {
		return nil, &Error{Op: "get season", Err: err}
	}
	return &season, nil
}

func (s *PostgresStore) ListSeasonAggregates(ctx context.Context, groupID, seasonID string) (map[string]rating.State, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, "list_season_aggregates", groupID, seasonID)
	if err != nil {
		return nil, &Error{Op: "list season aggregates", Err: err}
	}
	defer rows.Close()

	out := make(map[string]rating.State)
	for rows.Next() {
		var (
			playerID string
			st       rating.State
		)
		if err := rows.Scan(&playerID, &st.Rating, &st.MatchesPlayed, &st.Wins, &st.Losses,
			&st.GoalsFor, &st.GoalsAgainst); err != nil {
			return nil, &Error{Op: "list season aggregates", Err: err}
		}
		out[playerID] = st
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "list season aggregates", Err: err}
	}
	return out, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, groupID, seasonID string) ([]rating.Match, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var (
		rows pgx.Rows
		err  error
	)
	if seasonID == "" {
		rows, err = s.pool.Query(ctx, "list_matches", groupID)
	} else {
		rows, err = s.pool.Query(ctx, "list_season_matches", groupID, seasonID)
	}
	if err != nil {
		return nil, &Error{Op: "list matches", Err: err}
	}
	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (rating.Match, error) {
		return scanMatch(row)
	})
	if err != nil {
		return nil, &Error{Op: "list matches", Err: err}
	}
	return matches, nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, matchID string) (*rating.Match, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	m, err := scanMatch(s.pool.QueryRow(ctx, "get_match", matchID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	if err != nil {
		return nil, &Error{Op: "get match", Err: err}
	}
	return &m, nil
}

func (s *PostgresStore) LatestMatch(ctx context.Context, groupID string) (*rating.Match, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	m, err := scanMatch(s.pool.QueryRow(ctx, "latest_match", groupID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "latest match", Err: err}
	}
	return &m, nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

func (s *PostgresStore) WritePlayerAggregate(ctx context.Context, playerID string, st rating.State) error {
	return s.execOne(ctx, "write player aggregate "+playerID, "write_player_aggregate",
		playerID, st.Rating, st.MatchesPlayed, st.Wins, st.Losses)
}

func (s *PostgresStore) WriteSeasonAggregate(ctx context.Context, playerID, seasonID string, st rating.State) error {
	return s.execOne(ctx, "write season aggregate "+playerID, "write_season_aggregate",
		playerID, seasonID, st.Rating, st.MatchesPlayed, st.Wins, st.Losses, st.GoalsFor, st.GoalsAgainst)
}

func (s *PostgresStore) WriteMatchSnapshot(ctx context.Context, matchID string, scope rating.Scope, snap rating.Snapshot) error {
	stmt := "write_match_snapshot"
	if scope.IsSeason() {
		stmt = "write_match_season_snapshot"
	}
	return s.execOne(ctx, "write match snapshot "+matchID, stmt,
		matchID, int32s(snap.Pre), int32s(snap.Post))
}

func (s *PostgresStore) ClearSeasonSnapshot(ctx context.Context, matchID string) error {
	return s.execOne(ctx, "clear season snapshot "+matchID, "clear_match_season_snapshot", matchID)
}

func (s *PostgresStore) InsertMatch(ctx context.Context, m rating.Match) error {
	var pre, post, seasonPre, seasonPost []int32
	if m.Snapshot != nil {
		pre, post = int32s(m.Snapshot.Pre), int32s(m.Snapshot.Post)
	}
	if m.SeasonSnapshot != nil {
		seasonPre, seasonPost = int32s(m.SeasonSnapshot.Pre), int32s(m.SeasonSnapshot.Post)
	}
	return s.execOne(ctx, "insert match "+m.ID, "insert_match",
		m.ID, m.GroupID, m.SeasonID,
		m.Team1[0], m.Team1[1], m.Team2[0], m.Team2[1],
		m.Score1, m.Score2, m.PlayedAt, m.CreatedAt,
		pre, post, seasonPre, seasonPost)
}

func (s *PostgresStore) UpdateMatch(ctx context.Context, m rating.Match) error {
	return s.execOne(ctx, "update match "+m.ID, "update_match",
		m.ID, m.SeasonID,
		m.Team1[0], m.Team1[1], m.Team2[0], m.Team2[1],
		m.Score1, m.Score2, m.PlayedAt)
}

func (s *PostgresStore) DeleteMatch(ctx context.Context, matchID string) error {
	return s.execOne(ctx, "delete match "+matchID, "delete_match", matchID)
}

// execOne runs a statement that must touch exactly one row.
func (s *PostgresStore) execOne(ctx context.Context, op, stmt string, args ...any) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &Error{Op: op, Err: ErrNotFound}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Row mapping
// ---------------------------------------------------------------------------

func scanMatch(row pgx.Row) (rating.Match, error) {
	var (
		m                                 rating.Match
		pre, post, seasonPre, seasonPost []int32
	)
	err := row.Scan(&m.ID, &m.GroupID, &m.SeasonID,
		&m.Team1[0], &m.Team1[1], &m.Team2[0], &m.Team2[1],
		&m.Score1, &m.Score2, &m.PlayedAt, &m.CreatedAt,
		&pre, &post, &seasonPre, &seasonPost)
	if err != nil {
		return rating.Match{}, err
	}
	m.Snapshot = toSnapshot(m.Players(), pre, post)
	m.SeasonSnapshot = toSnapshot(m.Players(), seasonPre, seasonPost)
	return m, nil
}

// toSnapshot returns nil unless both arrays hold four ratings.
func toSnapshot(players [4]string, pre, post []int32) *rating.Snapshot {
	if len(pre) != 4 || len(post) != 4 {
		return nil
	}
	snap := &rating.Snapshot{Players: players}
	for i := range 4 {
		snap.Pre[i] = int(pre[i])
		snap.Post[i] = int(post[i])
	}
	return snap
}

func int32s(v [4]int) []int32 {
	return []int32{int32(v[0]), int32(v[1]), int32(v[2]), int32(v[3])}
}

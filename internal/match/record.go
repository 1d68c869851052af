package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/matchplay/internal/events"
	"github.com/albapepper/matchplay/internal/rating"
)

// RecordInput is a new match as submitted by a client.
type RecordInput struct {
	GroupID  string    `json:"-"`
	SeasonID string    `json:"season_id,omitempty"`
	Team1    [2]string `json:"team1"`
	Team2    [2]string `json:"team2"`
	Score1   int       `json:"score1"`
	Score2   int       `json:"score2"`
	// PlayedAt defaults to now.
	PlayedAt time.Time `json:"played_at"`
}

// Record stores a new match and applies it to the stored ratings.
//
// When the match sorts after everything stored it is folded in with one Step
// per scope on top of the stored aggregates, which gives exactly what a full
// replay would. Aggregates are written before the match itself, so a failed
// aggregate write never leaves a match without its ratings applied; the
// aggregates already written are undone by recalculating the match's scopes
// without it. A match that sorts before the latest stored one is inserted and its scopes are
// recalculated in full.
func (s *Service) Record(ctx context.Context, in RecordInput) (*rating.Match, error) {
	if in.GroupID == "" {
		return nil, &rating.ValidationError{Field: "group", Reason: "group id is required"}
	}
	if err := rating.ValidateLineup(in.Team1, in.Team2); err != nil {
		return nil, err
	}
	if err := rating.ValidateScore(in.Score1, in.Score2); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC().Truncate(time.Microsecond)
	m := rating.Match{
		ID:        uuid.NewString(),
		GroupID:   in.GroupID,
		SeasonID:  in.SeasonID,
		Team1:     in.Team1,
		Team2:     in.Team2,
		Score1:    in.Score1,
		Score2:    in.Score2,
		PlayedAt:  in.PlayedAt.UTC().Truncate(time.Microsecond),
		CreatedAt: now,
	}
	if in.PlayedAt.IsZero() {
		m.PlayedAt = now
	}
	if err := s.validateParticipants(ctx, m.GroupID, m.SeasonID, m.PlayedAt, m.Players()); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, m.GroupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	latest, err := s.store.LatestMatch(ctx, m.GroupID)
	if err != nil {
		return nil, fmt.Errorf("latest match: %w", err)
	}
	if latest != nil {
		switch c := rating.Compare(m, *latest); {
		case c == 0:
			return nil, &rating.OrderingConflictError{
				First: latest.ID, Second: m.ID, PlayedAt: m.PlayedAt, CreatedAt: m.CreatedAt,
			}
		case c < 0:
			return s.recordBackdated(ctx, m)
		}
	}

	if err := s.applyIncremental(ctx, &m); err != nil {
		return nil, err
	}
	if err := s.store.InsertMatch(ctx, m); err != nil {
		return nil, persistErr("insert match", err)
	}

	s.logger.Info().
		Str("group_id", m.GroupID).
		Str("season_id", m.SeasonID).
		Str("match_id", m.ID).
		Ints("post", m.Snapshot.Post[:]).
		Msg("match recorded")
	s.publish(events.MatchRecorded, m.GroupID, m.SeasonID, m.ID)
	return &m, nil
}

// applyIncremental folds m into the stored aggregates of each scope it
// belongs to, writes them, and attaches the snapshots to m.
func (s *Service) applyIncremental(ctx context.Context, m *rating.Match) error {
	players := m.Players()

	roster, err := s.store.ListPlayers(ctx, m.GroupID)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	stored := make(map[string]rating.State, len(roster))
	for _, p := range roster {
		stored[p.ID] = p.State
	}

	var pre [4]rating.State
	for slot, id := range players {
		st, ok := stored[id]
		if !ok {
			st = rating.Baseline()
		}
		pre[slot] = st
	}
	post, snap, err := rating.Step(players, pre, m.Score1, m.Score2, false)
	if err != nil {
		return err
	}

	var (
		seasonPost [4]rating.State
		seasonSnap rating.Snapshot
	)
	if m.SeasonID != "" {
		aggs, err := s.store.ListSeasonAggregates(ctx, m.GroupID, m.SeasonID)
		if err != nil {
			return fmt.Errorf("list season aggregates: %w", err)
		}
		var seasonPre [4]rating.State
		for slot, id := range players {
			st, ok := aggs[id]
			if !ok {
				st = rating.Baseline()
			}
			seasonPre[slot] = st
		}
		seasonPost, seasonSnap, err = rating.Step(players, seasonPre, m.Score1, m.Score2, true)
		if err != nil {
			return err
		}
	}

	for slot, id := range players {
		if err := s.store.WritePlayerAggregate(ctx, id, post[slot]); err != nil {
			return s.restore(ctx, *m, persistErr("write player aggregate", err))
		}
	}
	m.Snapshot = &snap

	if m.SeasonID != "" {
		for slot, id := range players {
			if err := s.store.WriteSeasonAggregate(ctx, id, m.SeasonID, seasonPost[slot]); err != nil {
				return s.restore(ctx, *m, persistErr("write season aggregate", err))
			}
		}
		m.SeasonSnapshot = &seasonSnap
	}
	return nil
}

// restore replays the scopes of m after a partial aggregate write. m is not
// stored yet, so the replay leaves every aggregate as if it never happened.
func (s *Service) restore(ctx context.Context, m rating.Match, cause error) error {
	s.logger.Warn().Err(cause).Str("group_id", m.GroupID).Str("season_id", m.SeasonID).
		Msg("aggregate write failed, recalculating to undo partial writes")
	if err := s.recalculateScopes(ctx, affectedScopes(m)); err != nil {
		s.logger.Error().Err(err).Str("group_id", m.GroupID).Msg("aggregates could not be restored")
		return errors.Join(cause, err)
	}
	return cause
}

func (s *Service) recordBackdated(ctx context.Context, m rating.Match) (*rating.Match, error) {
	s.logger.Info().
		Str("group_id", m.GroupID).
		Str("match_id", m.ID).
		Time("played_at", m.PlayedAt).
		Msg("backdated match, recalculating group")

	if err := s.store.InsertMatch(ctx, m); err != nil {
		return nil, persistErr("insert match", err)
	}
	scopes := affectedScopes(m)
	// The match is stored from here on, so the event goes out even if a
	// recalculation fails.
	defer s.publish(events.MatchRecorded, m.GroupID, m.SeasonID, m.ID)
	if err := s.recalculateScopes(ctx, scopes); err != nil {
		return nil, err
	}

	stored, err := s.store.GetMatch(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("reload match: %w", err)
	}
	return stored, nil
}

func (s *Service) recalculateScopes(ctx context.Context, scopes []rating.Scope) error {
	var errs []error
	for _, scope := range scopes {
		if _, err := s.recalculateLocked(ctx, scope); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

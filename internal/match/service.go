// Package match records, edits and deletes matches and keeps the stored
// ratings of their group consistent with a replay of its history.
package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/rs/zerolog"

	"github.com/albapepper/matchplay/internal/events"
	"github.com/albapepper/matchplay/internal/lock"
	"github.com/albapepper/matchplay/internal/rating"
	"github.com/albapepper/matchplay/internal/store"
)

// Service owns every write that changes ratings. All of them run under the
// group lock.
type Service struct {
	store       store.Store
	locker      lock.Locker
	events      events.Publisher
	clock       clock.Clock
	lockTimeout time.Duration
	logger      zerolog.Logger
}

func NewService(
	st store.Store,
	locker lock.Locker,
	pub events.Publisher,
	clk clock.Clock,
	lockTimeout time.Duration,
	logger zerolog.Logger,
) *Service {
	if pub == nil {
		pub = events.Discard
	}
	return &Service{
		store:       st,
		locker:      locker,
		events:      pub,
		clock:       clk,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

// RecalcResult summarizes one full-scope recalculation.
type RecalcResult struct {
	Scope   rating.Scope `json:"scope"`
	Players int          `json:"players"`
	Matches int          `json:"matches"`
	Failed  int          `json:"failed"`
}

// Recalculate replays scope from the baseline and rewrites every aggregate and
// snapshot in it.
func (s *Service) Recalculate(ctx context.Context, scope rating.Scope) (*RecalcResult, error) {
	if scope.GroupID == "" {
		return nil, &rating.ValidationError{Field: "group", Reason: "group id is required"}
	}

	unlock, err := s.lock(ctx, scope.GroupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	res, err := s.recalculateLocked(ctx, scope)
	if res != nil {
		s.publish(events.Recalculated, scope.GroupID, scope.SeasonID, "")
	}
	return res, err
}

// recalculateLocked expects the group lock to be held. Every write is
// attempted; failures are joined into the returned error.
func (s *Service) recalculateLocked(ctx context.Context, scope rating.Scope) (*RecalcResult, error) {
	data, err := store.LoadScope(ctx, s.store, scope)
	if err != nil {
		return nil, fmt.Errorf("recalculate %s: %w", scope, err)
	}
	res, err := rating.Replay(data.Matches, data.Roster(), scope)
	if err != nil {
		return nil, fmt.Errorf("recalculate %s: %w", scope, err)
	}

	out := &RecalcResult{Scope: scope, Players: len(data.Players), Matches: len(res.Order)}
	var errs []error
	for _, p := range data.Players {
		if err := s.writeAggregate(ctx, scope, p.ID, res.States[p.ID]); err != nil {
			errs = append(errs, err)
		}
	}
	if extra := len(res.States) - len(data.Players); extra > 0 {
		s.logger.Warn().Str("group_id", scope.GroupID).Int("players", extra).
			Msg("matches reference players outside the roster, their aggregates are not stored")
	}
	for _, id := range res.Order {
		if err := s.store.WriteMatchSnapshot(ctx, id, scope, res.Snapshots[id]); err != nil {
			errs = append(errs, err)
		}
	}
	for _, id := range data.Stale {
		if err := s.store.ClearSeasonSnapshot(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}

	out.Failed = len(errs)
	s.logger.Info().
		Str("group_id", scope.GroupID).
		Str("season_id", scope.SeasonID).
		Int("players", out.Players).
		Int("matches", out.Matches).
		Int("failed", out.Failed).
		Msg("scope recalculated")

	if len(errs) > 0 {
		return out, &store.Error{Op: "recalculate " + scope.String(), Err: errors.Join(errs...)}
	}
	return out, nil
}

func (s *Service) writeAggregate(ctx context.Context, scope rating.Scope, playerID string, st rating.State) error {
	if scope.IsSeason() {
		return s.store.WriteSeasonAggregate(ctx, playerID, scope.SeasonID, st)
	}
	return s.store.WritePlayerAggregate(ctx, playerID, st)
}

// lock bounds only the wait for the lock, not the work done under it.
func (s *Service) lock(ctx context.Context, groupID string) (func(), error) {
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}
	return s.locker.Lock(ctx, groupID)
}

func (s *Service) publish(kind events.Kind, groupID, seasonID, matchID string) {
	s.events.Publish(events.Event{
		Kind:     kind,
		GroupID:  groupID,
		SeasonID: seasonID,
		MatchID:  matchID,
		At:       s.clock.Now().UTC(),
	})
}

// validateParticipants checks membership and the season window. It only
// reads.
func (s *Service) validateParticipants(ctx context.Context, groupID, seasonID string, playedAt time.Time, players [4]string) error {
	roster, err := s.store.ListPlayers(ctx, groupID)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	members := make(map[string]struct{}, len(roster))
	for _, p := range roster {
		members[p.ID] = struct{}{}
	}
	for _, id := range players {
		if _, ok := members[id]; !ok {
			return &rating.ValidationError{Field: "players", Reason: fmt.Sprintf("player %s is not a member of group %s", id, groupID)}
		}
	}

	if seasonID == "" {
		return nil
	}
	season, err := s.store.GetSeason(ctx, seasonID)
	if errors.Is(err, store.ErrNotFound) {
		return &rating.ValidationError{Field: "season", Reason: fmt.Sprintf("unknown season %s", seasonID)}
	}
	if err != nil {
		return fmt.Errorf("get season: %w", err)
	}
	if season.GroupID != groupID {
		return &rating.ValidationError{Field: "season", Reason: fmt.Sprintf("season %s belongs to another group", seasonID)}
	}
	if !season.Contains(playedAt) {
		return &rating.ValidationError{Field: "played_at", Reason: fmt.Sprintf("%s is outside season %s", playedAt.Format(time.RFC3339), seasonID)}
	}
	return nil
}

// persistErr makes sure a failed store call surfaces as a persistence error.
func persistErr(op string, err error) error {
	if errors.Is(err, store.ErrPersistence) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &store.Error{Op: op, Err: err}
}

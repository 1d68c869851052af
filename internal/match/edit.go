package match

import (
	"context"
	"fmt"
	"time"

	"github.com/albapepper/matchplay/internal/events"
	"github.com/albapepper/matchplay/internal/rating"
)

// EditInput replaces the mutable fields of a stored match. A zero PlayedAt
// keeps the stored one; an empty SeasonID detaches the match from its season.
type EditInput struct {
	SeasonID string    `json:"season_id,omitempty"`
	Team1    [2]string `json:"team1"`
	Team2    [2]string `json:"team2"`
	Score1   int       `json:"score1"`
	Score2   int       `json:"score2"`
	PlayedAt time.Time `json:"played_at"`
}

// Edit rewrites a match and recalculates the group and every season the old or
// new version belongs to, all under one hold of the group lock.
func (s *Service) Edit(ctx context.Context, matchID string, in EditInput) (*rating.Match, error) {
	if err := rating.ValidateLineup(in.Team1, in.Team2); err != nil {
		return nil, err
	}
	if err := rating.ValidateScore(in.Score1, in.Score2); err != nil {
		return nil, err
	}

	cur, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	playedAt := cur.PlayedAt
	if !in.PlayedAt.IsZero() {
		playedAt = in.PlayedAt.UTC().Truncate(time.Microsecond)
	}
	players := [4]string{in.Team1[0], in.Team1[1], in.Team2[0], in.Team2[1]}
	if err := s.validateParticipants(ctx, cur.GroupID, in.SeasonID, playedAt, players); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, cur.GroupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read under the lock; the match may have been deleted meanwhile.
	cur, err = s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	updated := *cur
	updated.SeasonID = in.SeasonID
	updated.Team1, updated.Team2 = in.Team1, in.Team2
	updated.Score1, updated.Score2 = in.Score1, in.Score2
	updated.PlayedAt = playedAt

	if err := s.store.UpdateMatch(ctx, updated); err != nil {
		return nil, persistErr("update match", err)
	}
	defer s.publish(events.MatchEdited, updated.GroupID, updated.SeasonID, updated.ID)

	if err := s.recalculateScopes(ctx, affectedScopes(*cur, updated)); err != nil {
		return nil, err
	}

	s.logger.Info().Str("group_id", updated.GroupID).Str("match_id", updated.ID).Msg("match edited")
	stored, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("reload match: %w", err)
	}
	return stored, nil
}

// Delete removes a match and recalculates the scopes it belonged to.
func (s *Service) Delete(ctx context.Context, matchID string) error {
	cur, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}

	unlock, err := s.lock(ctx, cur.GroupID)
	if err != nil {
		return err
	}
	defer unlock()

	cur, err = s.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteMatch(ctx, matchID); err != nil {
		return persistErr("delete match", err)
	}
	defer s.publish(events.MatchDeleted, cur.GroupID, cur.SeasonID, cur.ID)

	if err := s.recalculateScopes(ctx, affectedScopes(*cur)); err != nil {
		return err
	}
	s.logger.Info().Str("group_id", cur.GroupID).Str("match_id", cur.ID).Msg("match deleted")
	return nil
}

// affectedScopes lists the group scope followed by each distinct season of
// versions.
func affectedScopes(versions ...rating.Match) []rating.Scope {
	groupID := versions[0].GroupID
	scopes := []rating.Scope{rating.GroupScope(groupID)}
	seen := make(map[string]bool)
	for _, v := range versions {
		if v.SeasonID == "" || seen[v.SeasonID] {
			continue
		}
		seen[v.SeasonID] = true
		scopes = append(scopes, rating.SeasonScope(groupID, v.SeasonID))
	}
	return scopes
}

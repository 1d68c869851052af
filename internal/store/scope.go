package store

import (
	"context"
	"fmt"

	"github.com/albapepper/matchplay/internal/rating"
)

// ScopeData is everything a replay of one scope needs, plus the stored values
// it is compared against.
type ScopeData struct {
	Scope   rating.Scope
	Players []Player
	Season  *Season
	Matches []rating.Match
	// Stale lists season matches played outside the season window that still
	// carry a season snapshot.
	Stale []string
	// SeasonAggregates is only populated for season scopes.
	SeasonAggregates map[string]rating.State
}

// LoadScope reads players, season and matches of scope. Season scopes only
// keep matches inside the season window.
func LoadScope(ctx context.Context, st Store, scope rating.Scope) (*ScopeData, error) {
	players, err := st.ListPlayers(ctx, scope.GroupID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	data := &ScopeData{Scope: scope, Players: players}

	if scope.IsSeason() {
		season, err := st.GetSeason(ctx, scope.SeasonID)
		if err != nil {
			return nil, fmt.Errorf("get season: %w", err)
		}
		if season.GroupID != scope.GroupID {
			return nil, &rating.ValidationError{
				Field:  "season",
				Reason: fmt.Sprintf("season %s belongs to group %s", season.ID, season.GroupID),
			}
		}
		data.Season = season

		aggs, err := st.ListSeasonAggregates(ctx, scope.GroupID, scope.SeasonID)
		if err != nil {
			return nil, fmt.Errorf("list season aggregates: %w", err)
		}
		data.SeasonAggregates = aggs
	}

	matches, err := st.ListMatches(ctx, scope.GroupID, scope.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if data.Season != nil {
		kept := matches[:0]
		for _, m := range matches {
			switch {
			case data.Season.Contains(m.PlayedAt):
				kept = append(kept, m)
			case m.SeasonSnapshot != nil:
				data.Stale = append(data.Stale, m.ID)
			}
		}
		matches = kept
	}
	data.Matches = matches
	return data, nil
}

// Roster returns the ids of the group's players.
func (d *ScopeData) Roster() []string {
	ids := make([]string, len(d.Players))
	for i, p := range d.Players {
		ids[i] = p.ID
	}
	return ids
}

// Stored returns the persisted aggregate of a player in this scope. Season
// players without a row report the baseline.
func (d *ScopeData) Stored(playerID string) rating.State {
	if d.Scope.IsSeason() {
		if s, ok := d.SeasonAggregates[playerID]; ok {
			return s
		}
		return rating.Baseline()
	}
	for _, p := range d.Players {
		if p.ID == playerID {
			return p.State
		}
	}
	return rating.Baseline()
}

// Names maps player ids to display names.
func (d *ScopeData) Names() map[string]string {
	names := make(map[string]string, len(d.Players))
	for _, p := range d.Players {
		names[p.ID] = p.Name
	}
	return names
}

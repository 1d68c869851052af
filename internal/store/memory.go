package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/albapepper/matchplay/internal/rating"
)

var errDuplicateID = errors.New("duplicate id")

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a Store held entirely in process memory. Tests and dry
// tooling use it; it is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	groups  []string
	players map[string]Player
	seasons map[string]Season
	// season aggregates keyed by season id, then player id
	seasonAggs map[string]map[string]rating.State
	matches    map[string]rating.Match
	inserted   []string

	writes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:    make(map[string]Player),
		seasons:    make(map[string]Season),
		seasonAggs: make(map[string]map[string]rating.State),
		matches:    make(map[string]rating.Match),
	}
}

// ---------------------------------------------------------------------------
// Seeding (not part of Store)
// ---------------------------------------------------------------------------

// AddPlayer registers a player, creating its group on first sight. A zero
// State is replaced by the baseline.
func (m *MemoryStore) AddPlayer(p Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.State == (rating.State{}) {
		p.State = rating.Baseline()
	}
	if !slices.Contains(m.groups, p.GroupID) {
		m.groups = append(m.groups, p.GroupID)
	}
	m.players[p.ID] = p
}

func (m *MemoryStore) AddSeason(s Season) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seasons[s.ID] = s
}

// AddMatch stores a match as-is without counting it as a write.
func (m *MemoryStore) AddMatch(match rating.Match) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putMatch(match)
}

// Writes returns how many mutating Store calls succeeded.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Player returns the stored player.
func (m *MemoryStore) Player(id string) (Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	return p, ok
}

// SeasonAggregate returns the stored season aggregate of a player.
func (m *MemoryStore) SeasonAggregate(seasonID, playerID string) (rating.State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.seasonAggs[seasonID][playerID]
	return s, ok
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (m *MemoryStore) ListGroups(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	groups := slices.Clone(m.groups)
	slices.Sort(groups)
	return groups, nil
}

func (m *MemoryStore) ListPlayers(_ context.Context, groupID string) ([]Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Player
	for _, id := range slices.Sorted(maps.Keys(m.players)) {
		if p := m.players[id]; p.GroupID == groupID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetSeason(_ context.Context, seasonID string) (*Season, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.seasons[seasonID]
	if !ok {
		return nil, fmt.Errorf("season %s: %w", seasonID, ErrNotFound)
	}
	return &s, nil
}

func (m *MemoryStore) ListSeasonAggregates(_ context.Context, groupID, seasonID string) (map[string]rating.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]rating.State)
	for playerID, s := range m.seasonAggs[seasonID] {
		if m.players[playerID].GroupID == groupID {
			out[playerID] = s
		}
	}
	return out, nil
}

func (m *MemoryStore) ListMatches(_ context.Context, groupID, seasonID string) ([]rating.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []rating.Match
	for _, id := range m.inserted {
		match := m.matches[id]
		if match.GroupID != groupID {
			continue
		}
		if seasonID != "" && match.SeasonID != seasonID {
			continue
		}
		out = append(out, cloneMatch(match))
	}
	return out, nil
}

func (m *MemoryStore) GetMatch(_ context.Context, matchID string) (*rating.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	match, ok := m.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	match = cloneMatch(match)
	return &match, nil
}

func (m *MemoryStore) LatestMatch(_ context.Context, groupID string) (*rating.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *rating.Match
	for _, id := range m.inserted {
		match := m.matches[id]
		if match.GroupID != groupID {
			continue
		}
		if latest == nil || rating.Compare(match, *latest) > 0 {
			c := cloneMatch(match)
			latest = &c
		}
	}
	return latest, nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

func (m *MemoryStore) WritePlayerAggregate(_ context.Context, playerID string, s rating.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return &Error{Op: "write player aggregate " + playerID, Err: ErrNotFound}
	}
	p.State = s
	m.players[playerID] = p
	m.writes++
	return nil
}

func (m *MemoryStore) WriteSeasonAggregate(_ context.Context, playerID, seasonID string, s rating.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seasons[seasonID]; !ok {
		return &Error{Op: "write season aggregate " + seasonID, Err: ErrNotFound}
	}
	if m.seasonAggs[seasonID] == nil {
		m.seasonAggs[seasonID] = make(map[string]rating.State)
	}
	m.seasonAggs[seasonID][playerID] = s
	m.writes++
	return nil
}

func (m *MemoryStore) WriteMatchSnapshot(_ context.Context, matchID string, scope rating.Scope, snap rating.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok {
		return &Error{Op: "write match snapshot " + matchID, Err: ErrNotFound}
	}
	if scope.IsSeason() {
		match.SeasonSnapshot = &snap
	} else {
		match.Snapshot = &snap
	}
	m.matches[matchID] = match
	m.writes++
	return nil
}

func (m *MemoryStore) ClearSeasonSnapshot(_ context.Context, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok {
		return &Error{Op: "clear season snapshot " + matchID, Err: ErrNotFound}
	}
	match.SeasonSnapshot = nil
	m.matches[matchID] = match
	m.writes++
	return nil
}

func (m *MemoryStore) InsertMatch(_ context.Context, match rating.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.matches[match.ID]; ok {
		return &Error{Op: "insert match " + match.ID, Err: errDuplicateID}
	}
	m.putMatch(match)
	m.writes++
	return nil
}

func (m *MemoryStore) UpdateMatch(_ context.Context, match rating.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.matches[match.ID]
	if !ok {
		return &Error{Op: "update match " + match.ID, Err: ErrNotFound}
	}
	if cur.SeasonID != match.SeasonID {
		cur.SeasonSnapshot = nil
	}
	cur.SeasonID = match.SeasonID
	cur.Team1, cur.Team2 = match.Team1, match.Team2
	cur.Score1, cur.Score2 = match.Score1, match.Score2
	cur.PlayedAt = match.PlayedAt
	m.matches[match.ID] = cur
	m.writes++
	return nil
}

func (m *MemoryStore) DeleteMatch(_ context.Context, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.matches[matchID]; !ok {
		return &Error{Op: "delete match " + matchID, Err: ErrNotFound}
	}
	delete(m.matches, matchID)
	m.inserted = slices.DeleteFunc(m.inserted, func(id string) bool { return id == matchID })
	m.writes++
	return nil
}

func (m *MemoryStore) putMatch(match rating.Match) {
	if _, ok := m.matches[match.ID]; !ok {
		m.inserted = append(m.inserted, match.ID)
	}
	m.matches[match.ID] = cloneMatch(match)
}

func cloneMatch(m rating.Match) rating.Match {
	if m.Snapshot != nil {
		s := *m.Snapshot
		m.Snapshot = &s
	}
	if m.SeasonSnapshot != nil {
		s := *m.SeasonSnapshot
		m.SeasonSnapshot = &s
	}
	return m
}

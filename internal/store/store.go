// Package store defines the persistence boundary of the rating engine and its
// two implementations: MemoryStore for tests and tooling, PostgresStore for
// production.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/albapepper/matchplay/internal/rating"
)

var (
	// ErrPersistence matches every *Error.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
)

// Error wraps a failed read or write against the store.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrPersistence
}

// Player is a group member together with their stored lifetime aggregate.
type Player struct {
	ID      string       `json:"id"`
	GroupID string       `json:"group_id"`
	Name    string       `json:"name"`
	State   rating.State `json:"state"`
}

// Season is read-only collaborator data. A nil bound leaves that side of the
// window open.
type Season struct {
	ID       string     `json:"id"`
	GroupID  string     `json:"group_id"`
	Name     string     `json:"name"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

// Contains reports whether t falls inside the season window. The end bound is
// exclusive.
func (s *Season) Contains(t time.Time) bool {
	if s.StartsAt != nil && t.Before(*s.StartsAt) {
		return false
	}
	if s.EndsAt != nil && !t.Before(*s.EndsAt) {
		return false
	}
	return true
}

// Store is everything the rating engine reads and writes. Calls are
// independent: nothing spans a transaction across two calls.
type Store interface {
	ListGroups(ctx context.Context) ([]string, error)
	ListPlayers(ctx context.Context, groupID string) ([]Player, error)
	GetSeason(ctx context.Context, seasonID string) (*Season, error)
	// ListSeasonAggregates returns the stored season aggregates keyed by
	// player id. Players without a row are absent.
	ListSeasonAggregates(ctx context.Context, groupID, seasonID string) (map[string]rating.State, error)

	// ListMatches returns the matches of a group, or of one of its seasons
	// when seasonID is not empty. Callers must not rely on the order.
	ListMatches(ctx context.Context, groupID, seasonID string) ([]rating.Match, error)
	GetMatch(ctx context.Context, matchID string) (*rating.Match, error)
	// LatestMatch returns the last match of the group in replay order, or
	// nil when the group has none.
	LatestMatch(ctx context.Context, groupID string) (*rating.Match, error)

	WritePlayerAggregate(ctx context.Context, playerID string, s rating.State) error
	WriteSeasonAggregate(ctx context.Context, playerID, seasonID string, s rating.State) error
	WriteMatchSnapshot(ctx context.Context, matchID string, scope rating.Scope, snap rating.Snapshot) error
	// ClearSeasonSnapshot drops the season snapshot of a match that no season
	// replay covers any more.
	ClearSeasonSnapshot(ctx context.Context, matchID string) error

	InsertMatch(ctx context.Context, m rating.Match) error
	// UpdateMatch rewrites the teams, scores, play time and season of a match.
	// CreatedAt and the group snapshot are left untouched. The season snapshot
	// is dropped when the season changes.
	UpdateMatch(ctx context.Context, m rating.Match) error
	DeleteMatch(ctx context.Context, matchID string) error
}

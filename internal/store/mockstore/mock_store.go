package mockstore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/albapepper/matchplay/internal/rating"
	"github.com/albapepper/matchplay/internal/store"
)

type Store struct {
	mock.Mock
}

var _ store.Store = (*Store)(nil)

func (s *Store) ListGroups(ctx context.Context) ([]string, error) {
	args := s.Called(ctx)

	var res []string
	if args.Get(0) != nil {
		res = args.Get(0).([]string)
	}
	return res, args.Error(1)
}

func (s *Store) ListPlayers(ctx context.Context, groupID string) ([]store.Player, error) {
	args := s.Called(ctx, groupID)

	var res []store.Player
	if args.Get(0) != nil {
		res = args.Get(0).([]store.Player)
	}
	return res, args.Error(1)
}

func (s *Store) GetSeason(ctx context.Context, seasonID string) (*store.Season, error) {
	args := s.Called(ctx, seasonID)

	var res *store.Season
	if args.Get(0) != nil {
		res = args.Get(0).(*store.Season)
	}
	return res, args.Error(1)
}

func (s *Store) ListSeasonAggregates(ctx context.Context, groupID, seasonID string) (map[string]rating.State, error) {
	args := s.Called(ctx, groupID, seasonID)

	var res map[string]rating.State
	if args.Get(0) != nil {
		res = args.Get(0).(map[string]rating.State)
	}
	return res, args.Error(1)
}

func (s *Store) ListMatches(ctx context.Context, groupID, seasonID string) ([]rating.Match, error) {
	args := s.Called(ctx, groupID, seasonID)

	var res []rating.Match
	if args.Get(0) != nil {
		res = args.Get(0).([]rating.Match)
	}
	return res, args.Error(1)
}

func (s *Store) GetMatch(ctx context.Context, matchID string) (*rating.Match, error) {
	args := s.Called(ctx, matchID)

	var res *rating.Match
	if args.Get(0) != nil {
		res = args.Get(0).(*rating.Match)
	}
	return res, args.Error(1)
}

func (s *Store) LatestMatch(ctx context.Context, groupID string) (*rating.Match, error) {
	args := s.Called(ctx, groupID)

	var res *rating.Match
	if args.Get(0) != nil {
		res = args.Get(0).(*rating.Match)
	}
	return res, args.Error(1)
}

func (s *Store) WritePlayerAggregate(ctx context.Context, playerID string, st rating.State) error {
	args := s.Called(ctx, playerID, st)
	return args.Error(0)
}

func (s *Store) WriteSeasonAggregate(ctx context.Context, playerID, seasonID string, st rating.State) error {
	args := s.Called(ctx, playerID, seasonID, st)
	return args.Error(0)
}

func (s *Store) WriteMatchSnapshot(ctx context.Context, matchID string, scope rating.Scope, snap rating.Snapshot) error {
	args := s.Called(ctx, matchID, scope, snap)
	return args.Error(0)
}

func (s *Store) ClearSeasonSnapshot(ctx context.Context, matchID string) error {
	args := s.Called(ctx, matchID)
	return args.Error(0)
}

func (s *Store) InsertMatch(ctx context.Context, m rating.Match) error {
	args := s.Called(ctx, m)
	return args.Error(0)
}

func (s *Store) UpdateMatch(ctx context.Context, m rating.Match) error {
	args := s.Called(ctx, m)
	return args.Error(0)
}

func (s *Store) DeleteMatch(ctx context.Context, matchID string) error {
	args := s.Called(ctx, matchID)
	return args.Error(0)
}

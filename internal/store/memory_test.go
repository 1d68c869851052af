package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/matchplay/internal/rating"
)

var t0 = time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

func seedStore() *MemoryStore {
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		s.AddPlayer(Player{ID: id, GroupID: "g1", Name: "Player " + id})
	}
	s.AddPlayer(Player{ID: "x", GroupID: "g2", Name: "Other"})
	return s
}

func match(id string, played time.Time, seasonID string) rating.Match {
	return rating.Match{
		ID: id, GroupID: "g1", SeasonID: seasonID,
		Team1: [2]string{"a", "b"}, Team2: [2]string{"c", "d"},
		Score1: 10, Score2: 8,
		PlayedAt: played, CreatedAt: played.Add(time.Minute),
	}
}

func TestMemoryStoreRoster(t *testing.T) {
	s := seedStore()
	ctx := context.Background()

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, groups)

	players, err := s.ListPlayers(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, players, 4)
	assert.Equal(t, "a", players[0].ID)
	assert.Equal(t, rating.Baseline(), players[0].State)
}

func TestMemoryStoreLatestMatch(t *testing.T) {
	s := seedStore()
	ctx := context.Background()

	latest, err := s.LatestMatch(ctx, "g1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	s.AddMatch(match("m2", t0.Add(time.Hour), ""))
	s.AddMatch(match("m1", t0, ""))

	latest, err = s.LatestMatch(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "m2", latest.ID)
}

func TestMemoryStoreWrites(t *testing.T) {
	s := seedStore()
	s.AddSeason(Season{ID: "s1", GroupID: "g1"})
	s.AddMatch(match("m1", t0, "s1"))
	ctx := context.Background()

	st := rating.State{Rating: 1218, MatchesPlayed: 1, Wins: 1}
	require.NoError(t, s.WritePlayerAggregate(ctx, "a", st))
	require.NoError(t, s.WriteSeasonAggregate(ctx, "a", "s1", st))

	snap := rating.Snapshot{Players: [4]string{"a", "b", "c", "d"}, Pre: [4]int{1200, 1200, 1200, 1200}, Post: [4]int{1218, 1218, 1186, 1186}}
	require.NoError(t, s.WriteMatchSnapshot(ctx, "m1", rating.SeasonScope("g1", "s1"), snap))

	p, _ := s.Player("a")
	assert.Equal(t, st, p.State)
	agg, ok := s.SeasonAggregate("s1", "a")
	require.True(t, ok)
	assert.Equal(t, st, agg)

	m, err := s.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Nil(t, m.Snapshot)
	require.NotNil(t, m.SeasonSnapshot)
	assert.Equal(t, snap, *m.SeasonSnapshot)

	assert.Equal(t, 3, s.Writes())
}

func TestMemoryStoreUpdateDropsSeasonSnapshot(t *testing.T) {
	s := seedStore()
	s.AddSeason(Season{ID: "s1", GroupID: "g1"})
	s.AddMatch(match("m1", t0, "s1"))
	ctx := context.Background()

	snap := rating.Snapshot{Players: [4]string{"a", "b", "c", "d"}, Post: [4]int{1218, 1218, 1186, 1186}}
	require.NoError(t, s.WriteMatchSnapshot(ctx, "m1", rating.GroupScope("g1"), snap))
	require.NoError(t, s.WriteMatchSnapshot(ctx, "m1", rating.SeasonScope("g1", "s1"), snap))

	// Same season keeps both snapshots until the replay rewrites them.
	edited := match("m1", t0, "s1")
	edited.Score1, edited.Score2 = 4, 10
	require.NoError(t, s.UpdateMatch(ctx, edited))
	m, err := s.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.NotNil(t, m.SeasonSnapshot)

	require.NoError(t, s.UpdateMatch(ctx, match("m1", t0, "")))
	m, err = s.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, m.SeasonID)
	assert.Nil(t, m.SeasonSnapshot)
	require.NotNil(t, m.Snapshot)
	assert.Equal(t, snap, *m.Snapshot)
}

func TestMemoryStoreMissingRows(t *testing.T) {
	s := seedStore()
	ctx := context.Background()

	err := s.WritePlayerAggregate(ctx, "nobody", rating.Baseline())
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.GetMatch(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Error(t, s.DeleteMatch(ctx, "missing"))
	assert.Zero(t, s.Writes())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := seedStore()
	s.AddMatch(match("m1", t0, ""))
	ctx := context.Background()

	require.NoError(t, s.WriteMatchSnapshot(ctx, "m1", rating.GroupScope("g1"), rating.Snapshot{}))
	m, err := s.GetMatch(ctx, "m1")
	require.NoError(t, err)
	m.Snapshot.Post[0] = 2000

	again, err := s.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Zero(t, again.Snapshot.Post[0])
}

func TestLoadScopeSeasonWindow(t *testing.T) {
	s := seedStore()
	end := t0.Add(48 * time.Hour)
	s.AddSeason(Season{ID: "s1", GroupID: "g1", StartsAt: &t0, EndsAt: &end})
	s.AddMatch(match("before", t0.Add(-time.Hour), "s1"))
	s.AddMatch(match("inside", t0.Add(time.Hour), "s1"))
	s.AddMatch(match("at-end", end, "s1"))
	s.AddMatch(match("other", t0.Add(time.Hour*2), ""))

	data, err := LoadScope(context.Background(), s, rating.SeasonScope("g1", "s1"))
	require.NoError(t, err)
	require.Len(t, data.Matches, 1)
	assert.Equal(t, "inside", data.Matches[0].ID)
	assert.Equal(t, []string{"a", "b", "c", "d"}, data.Roster())

	assert.Empty(t, data.Stale)

	require.NoError(t, s.WriteMatchSnapshot(context.Background(), "before", rating.SeasonScope("g1", "s1"), rating.Snapshot{}))
	data, err = LoadScope(context.Background(), s, rating.SeasonScope("g1", "s1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"before"}, data.Stale)

	require.NoError(t, s.ClearSeasonSnapshot(context.Background(), "before"))
	data, err = LoadScope(context.Background(), s, rating.SeasonScope("g1", "s1"))
	require.NoError(t, err)
	assert.Empty(t, data.Stale)

	group, err := LoadScope(context.Background(), s, rating.GroupScope("g1"))
	require.NoError(t, err)
	assert.Len(t, group.Matches, 4)
}

func TestLoadScopeForeignSeason(t *testing.T) {
	s := seedStore()
	s.AddSeason(Season{ID: "s2", GroupID: "g2"})

	_, err := LoadScope(context.Background(), s, rating.SeasonScope("g1", "s2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, rating.ErrValidation))
}

func TestScopeDataStored(t *testing.T) {
	data := &ScopeData{
		Scope:            rating.SeasonScope("g1", "s1"),
		SeasonAggregates: map[string]rating.State{"a": {Rating: 1250, MatchesPlayed: 2, Wins: 2}},
	}
	assert.Equal(t, 1250, data.Stored("a").Rating)
	assert.Equal(t, rating.Baseline(), data.Stored("b"))
}

//go:build integration

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/albapepper/matchplay/internal/config"
	"github.com/albapepper/matchplay/internal/db"
	"github.com/albapepper/matchplay/internal/lock"
	"github.com/albapepper/matchplay/internal/rating"
)

var (
	testPool  *db.Pool
	testLocks *db.LockPool
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16.3-alpine",
		postgres.WithDatabase("matchplay"),
		postgres.WithUsername("matchplay"),
		postgres.WithPassword("secret"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}
	if err := db.Migrate(ctx, connStr); err != nil {
		panic(err)
	}
	cfg := &config.Config{
		DatabaseURL:        connStr,
		DBPoolMinConns:     1,
		DBPoolMaxConns:     4,
		DBPoolMaxLife:      time.Minute,
		DBLockPoolMaxConns: 4,
	}
	testPool, err = db.New(ctx, cfg)
	if err != nil {
		panic(err)
	}
	testLocks, err = db.NewLockPool(ctx, cfg)
	if err != nil {
		panic(err)
	}

	seed := []string{
		`INSERT INTO groups (id, name) VALUES ('g1', 'Office')`,
		`INSERT INTO players (id, group_id, name) VALUES
			('a', 'g1', 'Ana'), ('b', 'g1', 'Ben'), ('c', 'g1', 'Cy'), ('d', 'g1', 'Dee')`,
		`INSERT INTO seasons (id, group_id, name) VALUES ('s1', 'g1', 'Spring')`,
	}
	for _, q := range seed {
		if _, err := testPool.Exec(ctx, q); err != nil {
			panic(err)
		}
	}

	code := m.Run()

	testLocks.Close()
	testPool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewPostgresStore(testPool.Pool, 5*time.Second)

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, groups)

	played := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	m := rating.Match{
		ID: "m1", GroupID: "g1", SeasonID: "s1",
		Team1: [2]string{"a", "b"}, Team2: [2]string{"c", "d"},
		Score1: 10, Score2: 8,
		PlayedAt: played, CreatedAt: played.Add(time.Minute),
	}
	require.NoError(t, s.InsertMatch(ctx, m))

	snap := rating.Snapshot{Players: m.Players(), Pre: [4]int{1200, 1200, 1200, 1200}, Post: [4]int{1218, 1218, 1186, 1186}}
	require.NoError(t, s.WriteMatchSnapshot(ctx, "m1", rating.GroupScope("g1"), snap))
	require.NoError(t, s.WriteMatchSnapshot(ctx, "m1", rating.SeasonScope("g1", "s1"), snap))

	got, err := s.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, played.Equal(got.PlayedAt))
	require.NotNil(t, got.Snapshot)
	require.NotNil(t, got.SeasonSnapshot)
	assert.Equal(t, snap, *got.Snapshot)

	latest, err := s.LatestMatch(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "m1", latest.ID)

	season, err := s.ListMatches(ctx, "g1", "s1")
	require.NoError(t, err)
	assert.Len(t, season, 1)

	st := rating.State{Rating: 1218, MatchesPlayed: 1, Wins: 1, GoalsFor: 10, GoalsAgainst: 8}
	require.NoError(t, s.WritePlayerAggregate(ctx, "a", st))
	require.NoError(t, s.WriteSeasonAggregate(ctx, "a", "s1", st))

	players, err := s.ListPlayers(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1218, players[0].State.Rating)

	aggs, err := s.ListSeasonAggregates(ctx, "g1", "s1")
	require.NoError(t, err)
	assert.Equal(t, st, aggs["a"])

	detached := *got
	detached.SeasonID = ""
	require.NoError(t, s.UpdateMatch(ctx, detached))
	got, err = s.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, got.SeasonID)
	assert.Nil(t, got.SeasonSnapshot)
	require.NotNil(t, got.Snapshot)

	require.NoError(t, s.DeleteMatch(ctx, "m1"))
	_, err = s.GetMatch(ctx, "m1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgresStoreMissingPlayer(t *testing.T) {
	s := NewPostgresStore(testPool.Pool, 5*time.Second)

	err := s.WritePlayerAggregate(context.Background(), "nobody", rating.Baseline())
	assert.True(t, errors.Is(err, ErrPersistence))
}

func TestAdvisoryLockerExcludes(t *testing.T) {
	l := NewAdvisoryLocker(testLocks.Pool, zerolog.Nop())

	unlock, err := l.Lock(context.Background(), "g1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "g1")
	assert.True(t, errors.Is(err, lock.ErrTimeout))

	unlock()

	unlock, err = l.Lock(context.Background(), "g1")
	require.NoError(t, err)
	unlock()
}

func TestAdvisoryLocksLeaveWorkPoolFree(t *testing.T) {
	l := NewAdvisoryLocker(testLocks.Pool, zerolog.Nop())
	s := NewPostgresStore(testPool.Pool, time.Second)

	// Hold as many locks as the work pool has connections.
	for i := range 4 {
		unlock, err := l.Lock(context.Background(), fmt.Sprintf("busy-%d", i))
		require.NoError(t, err)
		defer unlock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	players, err := s.ListPlayers(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, players, 4)
}

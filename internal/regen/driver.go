// Package regen rebuilds every stored rating of a group or season from its
// match history. It is the operator's repair and audit tool.
package regen

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/itbasis/go-clock"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/albapepper/matchplay/internal/events"
	"github.com/albapepper/matchplay/internal/lock"
	"github.com/albapepper/matchplay/internal/rating"
	"github.com/albapepper/matchplay/internal/store"
)

// Options selects the scope and mode of a run.
type Options struct {
	GroupID  string
	SeasonID string
	DryRun   bool
	Verbose  bool
	// Out receives the verbose diff. Nil discards it.
	Out io.Writer
}

type Driver struct {
	store       store.Store
	locker      lock.Locker
	events      events.Publisher
	clock       clock.Clock
	lockTimeout time.Duration
	logger      zerolog.Logger
}

func NewDriver(st store.Store, locker lock.Locker, pub events.Publisher, clk clock.Clock, lockTimeout time.Duration, logger zerolog.Logger) *Driver {
	if pub == nil {
		pub = events.Discard
	}
	return &Driver{store: st, locker: locker, events: pub, clock: clk, lockTimeout: lockTimeout, logger: logger}
}

// Run replays the selected scope from the baseline and, unless DryRun is set,
// writes every aggregate and snapshot in it. Read and replay failures abort
// the run; write failures are counted and the run continues.
func (d *Driver) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.GroupID == "" {
		return nil, &rating.ValidationError{Field: "group", Reason: "group id is required"}
	}
	start := d.clock.Now()
	scope := rating.SeasonScope(opts.GroupID, opts.SeasonID)

	runID, err := gonanoid.New(12)
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	result := &Result{RunID: runID, Scope: scope, DryRun: opts.DryRun}
	log := d.logger.With().Str("run_id", runID).Str("group_id", scope.GroupID).Str("season_id", scope.SeasonID).Logger()

	lockCtx, cancel := ctx, context.CancelFunc(func() {})
	if d.lockTimeout > 0 {
		lockCtx, cancel = context.WithTimeout(ctx, d.lockTimeout)
	}
	unlock, err := d.locker.Lock(lockCtx, scope.GroupID)
	cancel()
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := store.LoadScope(ctx, d.store, scope)
	if err != nil {
		return nil, err
	}
	res, err := rating.Replay(data.Matches, data.Roster(), scope)
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if !opts.Verbose || out == nil {
		out = io.Discard
	}
	d.diff(result, data, res, out)
	log.Info().
		Int("players", result.PlayersToWrite).
		Int("matches", result.MatchesToWrite).
		Bool("drifted", result.Drifted()).
		Bool("dry_run", opts.DryRun).
		Msg("replay complete")

	if opts.DryRun {
		result.Duration = d.clock.Now().Sub(start)
		return result, nil
	}

	for _, p := range data.Players {
		st := res.States[p.ID]
		var err error
		if scope.IsSeason() {
			err = d.store.WriteSeasonAggregate(ctx, p.ID, scope.SeasonID, st)
		} else {
			err = d.store.WritePlayerAggregate(ctx, p.ID, st)
		}
		if err != nil {
			result.WriteFailures++
			result.AddErrorf("player %s: %v", p.ID, err)
			log.Error().Err(err).Str("player_id", p.ID).Msg("aggregate write failed")
			continue
		}
		result.PlayersWritten++
	}
	for _, id := range res.Order {
		if err := d.store.WriteMatchSnapshot(ctx, id, scope, res.Snapshots[id]); err != nil {
			result.WriteFailures++
			result.AddErrorf("match %s: %v", id, err)
			log.Error().Err(err).Str("match_id", id).Msg("snapshot write failed")
			continue
		}
		result.MatchesWritten++
	}
	for _, id := range data.Stale {
		if err := d.store.ClearSeasonSnapshot(ctx, id); err != nil {
			result.WriteFailures++
			result.AddErrorf("match %s: %v", id, err)
			log.Error().Err(err).Str("match_id", id).Msg("season snapshot clear failed")
			continue
		}
		result.MatchesWritten++
	}

	if result.PlayersWritten+result.MatchesWritten > 0 {
		d.events.Publish(events.Event{
			Kind:     events.Regenerated,
			GroupID:  scope.GroupID,
			SeasonID: scope.SeasonID,
			At:       d.clock.Now().UTC(),
		})
	}
	result.Duration = d.clock.Now().Sub(start)
	log.Info().Str("summary", result.Summary()).Dur("duration", result.Duration).Msg("regeneration finished")
	return result, nil
}

// diff fills the would-write and changed counts and prints the verbose
// report.
func (d *Driver) diff(result *Result, data *store.ScopeData, res *rating.Result, out io.Writer) {
	names := data.Names()
	byID := make(map[string]rating.Match, len(data.Matches))
	for _, m := range data.Matches {
		byID[m.ID] = m
	}

	result.PlayersToWrite = len(data.Players)
	result.MatchesToWrite = len(res.Order) + len(data.Stale)

	for _, id := range res.Order {
		m := byID[id]
		snap := res.Snapshots[id]
		if stored := m.SnapshotFor(data.Scope); stored == nil || *stored != snap {
			result.MatchesChanged++
		}
		fmt.Fprintln(out, formatMatch(m, snap, names))
	}
	// Stale snapshots belong to matches the season window no longer covers.
	result.MatchesChanged += len(data.Stale)
	for _, id := range data.Stale {
		fmt.Fprintf(out, "%s  outside the season window, season snapshot cleared\n", id)
	}

	for _, p := range data.Players {
		stored := data.Stored(p.ID)
		replayed := res.States[p.ID]
		if stored == replayed {
			continue
		}
		if data.Scope.IsSeason() {
			result.SeasonRowsChanged++
		} else {
			result.PlayersChanged++
		}
		fmt.Fprintln(out, formatPlayer(label(p.ID, names), stored, replayed))
	}
}

func formatMatch(m rating.Match, snap rating.Snapshot, names map[string]string) string {
	part := func(slot int) string {
		return fmt.Sprintf("%s %d→%d (%+d)", label(snap.Players[slot], names), snap.Pre[slot], snap.Post[slot], snap.Delta(slot))
	}
	return fmt.Sprintf("%s  %s  %s, %s  vs  %s, %s  %d-%d",
		m.PlayedAt.UTC().Format("2006-01-02 15:04"), m.ID,
		part(rating.SlotTeam1A), part(rating.SlotTeam1B),
		part(rating.SlotTeam2A), part(rating.SlotTeam2B),
		m.Score1, m.Score2)
}

func formatPlayer(name string, stored, replayed rating.State) string {
	return fmt.Sprintf("player %s: rating %d→%d, played %d→%d, wins %d→%d, losses %d→%d",
		name,
		stored.Rating, replayed.Rating,
		stored.MatchesPlayed, replayed.MatchesPlayed,
		stored.Wins, replayed.Wins,
		stored.Losses, replayed.Losses)
}

func label(id string, names map[string]string) string {
	if n := names[id]; n != "" {
		return n
	}
	return id
}

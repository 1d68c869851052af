package regen

import (
	"fmt"
	"time"

	"github.com/albapepper/matchplay/internal/rating"
)

// Result tracks counts and errors from one regeneration run.
type Result struct {
	RunID  string       `json:"run_id"`
	Scope  rating.Scope `json:"scope"`
	DryRun bool         `json:"dry_run"`

	// Records a normal run writes: every roster player and every match in
	// scope.
	PlayersToWrite int `json:"players_to_write"`
	MatchesToWrite int `json:"matches_to_write"`

	// Records whose stored value differs from the replay.
	PlayersChanged    int `json:"players_changed"`
	SeasonRowsChanged int `json:"season_rows_changed"`
	MatchesChanged    int `json:"matches_changed"`

	PlayersWritten int `json:"players_written"`
	MatchesWritten int `json:"matches_written"`
	WriteFailures  int `json:"write_failures"`

	Errors   []string      `json:"errors,omitempty"`
	Duration time.Duration `json:"duration"`
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Drifted reports whether any stored record differed from the replay.
func (r *Result) Drifted() bool {
	return r.PlayersChanged+r.SeasonRowsChanged+r.MatchesChanged > 0
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	mode := "write"
	if r.DryRun {
		mode = "dry-run"
	}
	return fmt.Sprintf(
		"run=%s scope=%s mode=%s players=%d matches=%d changed(players=%d season_rows=%d matches=%d) written(players=%d matches=%d) failures=%d",
		r.RunID, r.Scope, mode,
		r.PlayersToWrite, r.MatchesToWrite,
		r.PlayersChanged, r.SeasonRowsChanged, r.MatchesChanged,
		r.PlayersWritten, r.MatchesWritten,
		r.WriteFailures,
	)
}

package regen

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/albapepper/matchplay/internal/store"
)

// AuditReport lists groups whose stored ratings differ from a replay.
type AuditReport struct {
	Groups   int           `json:"groups"`
	Drifted  []string      `json:"drifted"`
	Failed   []string      `json:"failed"`
	Errors   []string      `json:"errors,omitempty"`
	Duration time.Duration `json:"duration"`
}

func (r *AuditReport) Summary() string {
	return fmt.Sprintf("groups=%d drifted=%d failed=%d", r.Groups, len(r.Drifted), len(r.Failed))
}

// Audit dry-runs the lifetime scope of every group across a pool of workers.
// Only listing the groups can fail the audit as a whole.
func Audit(ctx context.Context, d *Driver, st store.Store, workers int) (*AuditReport, error) {
	start := time.Now()

	groups, err := st.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	report := &AuditReport{Groups: len(groups)}
	if len(groups) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(groups) {
		workers = len(groups)
	}

	ch := make(chan string, len(groups))
	for _, g := range groups {
		ch <- g
	}
	close(ch)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for groupID := range ch {
				if ctx.Err() != nil {
					return
				}
				res, err := d.Run(ctx, Options{GroupID: groupID, DryRun: true})

				mu.Lock()
				switch {
				case err != nil:
					report.Failed = append(report.Failed, groupID)
					report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", groupID, err))
				case res.Drifted():
					report.Drifted = append(report.Drifted, groupID)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	slices.Sort(report.Drifted)
	slices.Sort(report.Failed)
	report.Duration = time.Since(start)

	d.logger.Info().
		Int("groups", report.Groups).
		Strs("drifted", report.Drifted).
		Strs("failed", report.Failed).
		Dur("duration", report.Duration).
		Msg("drift audit finished")
	return report, ctx.Err()
}

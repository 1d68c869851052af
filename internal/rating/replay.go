package rating

import (
	"cmp"
	"fmt"
	"slices"
)

// Result is the terminal state of a replay.
type Result struct {
	Scope Scope
	// States holds every roster player and every player seen in a match.
	States map[string]State
	// Snapshots is keyed by match id.
	Snapshots map[string]Snapshot
	// Order lists match ids in the sequence they were folded.
	Order []string
}

// Step folds one match into the states of its four participants. All four
// new ratings are computed from the same pre-match ratings, so a teammate's
// update never feeds into another player's calculation for this match.
//
// Replay and the incremental recorder both go through Step.
func Step(players [4]string, pre [4]State, score1, score2 int, trackGoals bool) ([4]State, Snapshot, error) {
	if err := ValidateScore(score1, score2); err != nil {
		return pre, Snapshot{}, err
	}

	team1Avg := float64(pre[SlotTeam1A].Rating+pre[SlotTeam1B].Rating) / 2
	team2Avg := float64(pre[SlotTeam2A].Rating+pre[SlotTeam2B].Rating) / 2
	team1Won := score1 > score2

	post := pre
	snap := Snapshot{Players: players}
	for slot := range post {
		onTeam1 := slot <= SlotTeam1B
		won := onTeam1 == team1Won
		opponentAvg, goalsFor, goalsAgainst := team2Avg, score1, score2
		if !onTeam1 {
			opponentAvg, goalsFor, goalsAgainst = team1Avg, score2, score1
		}

		s := pre[slot]
		snap.Pre[slot] = s.Rating
		s.Rating = NextRating(s.Rating, opponentAvg, won)
		s.MatchesPlayed++
		if won {
			s.Wins++
		} else {
			s.Losses++
		}
		if trackGoals {
			s.GoalsFor += goalsFor
			s.GoalsAgainst += goalsAgainst
		}
		snap.Post[slot] = s.Rating
		post[slot] = s
	}
	return post, snap, nil
}

// Replay resets every player to the baseline and folds matches in canonical
// order. Stored ratings are never an input: they are outputs of an earlier
// replay and reusing them would apply history twice.
//
// Roster players without a match in scope are reported at the baseline.
func Replay(matches []Match, roster []string, scope Scope) (*Result, error) {
	ordered, err := Sort(matches)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Scope:     scope,
		States:    make(map[string]State, len(roster)),
		Snapshots: make(map[string]Snapshot, len(ordered)),
		Order:     make([]string, 0, len(ordered)),
	}
	for _, id := range roster {
		res.States[id] = Baseline()
	}

	for _, m := range ordered {
		if err := checkInScope(m, scope); err != nil {
			return nil, fmt.Errorf("match %s: %w", m.ID, err)
		}
		if err := ValidateLineup(m.Team1, m.Team2); err != nil {
			return nil, fmt.Errorf("match %s: %w", m.ID, err)
		}

		players := m.Players()
		var pre [4]State
		for slot, id := range players {
			s, ok := res.States[id]
			if !ok {
				s = Baseline()
			}
			pre[slot] = s
		}

		post, snap, err := Step(players, pre, m.Score1, m.Score2, scope.IsSeason())
		if err != nil {
			return nil, fmt.Errorf("match %s: %w", m.ID, err)
		}
		for slot, id := range players {
			res.States[id] = post[slot]
		}
		res.Snapshots[m.ID] = snap
		res.Order = append(res.Order, m.ID)
	}
	return res, nil
}

func checkInScope(m Match, scope Scope) error {
	if m.GroupID != "" && m.GroupID != scope.GroupID {
		return invalid("group", "match belongs to group %s, replaying %s", m.GroupID, scope.GroupID)
	}
	if scope.IsSeason() && m.SeasonID != scope.SeasonID {
		return invalid("season", "match belongs to season %q, replaying %s", m.SeasonID, scope.SeasonID)
	}
	return nil
}

// Standing is one leaderboard row.
type Standing struct {
	PlayerID string `json:"player_id"`
	State
}

// Standings sorts states by rating, then matches played, then player id.
func Standings(states map[string]State) []Standing {
	out := make([]Standing, 0, len(states))
	for id, s := range states {
		out = append(out, Standing{PlayerID: id, State: s})
	}
	slices.SortFunc(out, func(a, b Standing) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		if c := cmp.Compare(b.MatchesPlayed, a.MatchesPlayed); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})
	return out
}

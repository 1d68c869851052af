package rating

import (
	"fmt"
	"time"
)

// State is a player's aggregate inside one scope. Goal counters are only
// maintained for season scopes.
type State struct {
	Rating        int `json:"rating"`
	MatchesPlayed int `json:"matches_played"`
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	GoalsFor      int `json:"goals_for"`
	GoalsAgainst  int `json:"goals_against"`
}

// Baseline is the state of a player before their first match in a scope.
func Baseline() State {
	return State{Rating: BaselineRating}
}

// Check reports a broken aggregate invariant.
func (s State) Check() error {
	if s.Wins+s.Losses != s.MatchesPlayed {
		return fmt.Errorf("wins (%d) + losses (%d) != matches played (%d)", s.Wins, s.Losses, s.MatchesPlayed)
	}
	if s.Rating < MinRating || s.Rating > MaxRating {
		return fmt.Errorf("rating %d outside [%d, %d]", s.Rating, MinRating, MaxRating)
	}
	return nil
}

// Slot order used by snapshots and Match.Players.
const (
	SlotTeam1A = iota
	SlotTeam1B
	SlotTeam2A
	SlotTeam2B
)

// Snapshot records every participant's rating immediately before and after a
// match was folded in. It is rewritten by each recalculation.
type Snapshot struct {
	Players [4]string `json:"players"`
	Pre     [4]int    `json:"pre"`
	Post    [4]int    `json:"post"`
}

// Delta returns the rating change for the player in slot.
func (s Snapshot) Delta(slot int) int {
	return s.Post[slot] - s.Pre[slot]
}

// Match is one recorded 2v2 result.
type Match struct {
	ID       string    `json:"id"`
	GroupID  string    `json:"group_id"`
	SeasonID string    `json:"season_id,omitempty"`
	Team1    [2]string `json:"team1"`
	Team2    [2]string `json:"team2"`
	Score1   int       `json:"score1"`
	Score2   int       `json:"score2"`
	// PlayedAt carries both the date and time of play.
	PlayedAt time.Time `json:"played_at"`
	// CreatedAt is the immutable insertion instant, used as the ordering
	// tie-break.
	CreatedAt time.Time `json:"created_at"`

	Snapshot       *Snapshot `json:"snapshot,omitempty"`
	SeasonSnapshot *Snapshot `json:"season_snapshot,omitempty"`
}

// Players returns the participants in slot order.
func (m Match) Players() [4]string {
	return [4]string{m.Team1[0], m.Team1[1], m.Team2[0], m.Team2[1]}
}

// Team1Won reports whether team 1 scored more. Equal scores never reach a
// stored match.
func (m Match) Team1Won() bool {
	return m.Score1 > m.Score2
}

// SnapshotFor returns the stored snapshot that belongs to scope.
func (m Match) SnapshotFor(scope Scope) *Snapshot {
	if scope.IsSeason() {
		return m.SeasonSnapshot
	}
	return m.Snapshot
}

// Scope is either a whole group (lifetime ratings) or one season of a group.
type Scope struct {
	GroupID  string `json:"group_id"`
	SeasonID string `json:"season_id,omitempty"`
}

// GroupScope returns the lifetime scope of groupID.
func GroupScope(groupID string) Scope {
	return Scope{GroupID: groupID}
}

// SeasonScope returns the season scope of seasonID inside groupID.
func SeasonScope(groupID, seasonID string) Scope {
	return Scope{GroupID: groupID, SeasonID: seasonID}
}

func (s Scope) IsSeason() bool {
	return s.SeasonID != ""
}

func (s Scope) String() string {
	if s.IsSeason() {
		return s.GroupID + "/" + s.SeasonID
	}
	return s.GroupID
}

// Package rating implements the group rating model: the Elo formula, the
// canonical match ordering, and the replay that folds a match history into
// player ratings and per-match snapshots.
package rating

import "math"

const (
	BaselineRating = 1200
	MinRating      = 800
	MaxRating      = 2400

	// Winners move further than losers, so an even match adds a few
	// points to the group's pool.
	WinK  = 35
	LossK = 29
)

// ExpectedScore is the probability that a player rated rating beats a team
// whose average rating is opponentAvg.
func ExpectedScore(rating int, opponentAvg float64) float64 {
	return 1.0 / (1.0 + math.Pow(10.0, (opponentAvg-float64(rating))/400.0))
}

// NextRating returns a player's rating after one match against a team with
// average rating opponentAvg. Halves round away from zero and the result is
// clamped to [MinRating, MaxRating].
func NextRating(rating int, opponentAvg float64, won bool) int {
	k, actual := float64(LossK), 0.0
	if won {
		k, actual = float64(WinK), 1.0
	}
	next := math.Round(float64(rating) + k*(actual-ExpectedScore(rating, opponentAvg)))
	return clampRating(int(next))
}

func clampRating(r int) int {
	if r < MinRating {
		return MinRating
	}
	if r > MaxRating {
		return MaxRating
	}
	return r
}

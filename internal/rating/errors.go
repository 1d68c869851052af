package rating

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrOrderingConflict matches every *OrderingConflictError.
	ErrOrderingConflict = errors.New("ordering conflict")
)

// ValidationError rejects malformed input before any rating is computed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// OrderingConflictError reports two matches that share the full ordering key,
// which leaves the replay sequence undefined. The source data needs repair.
type OrderingConflictError struct {
	First     string
	Second    string
	PlayedAt  time.Time
	CreatedAt time.Time
}

func (e *OrderingConflictError) Error() string {
	return fmt.Sprintf("matches %s and %s share ordering key (played_at=%s, created_at=%s)",
		e.First, e.Second,
		e.PlayedAt.UTC().Format(time.RFC3339Nano),
		e.CreatedAt.UTC().Format(time.RFC3339Nano))
}

func (e *OrderingConflictError) Is(target error) bool {
	return target == ErrOrderingConflict
}

// ValidateLineup requires four non-empty, distinct player ids.
func ValidateLineup(team1, team2 [2]string) error {
	seen := make(map[string]struct{}, 4)
	for _, id := range [4]string{team1[0], team1[1], team2[0], team2[1]} {
		if id == "" {
			return invalid("players", "empty player id")
		}
		if _, dup := seen[id]; dup {
			return invalid("players", "player %s appears more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ValidateScore rejects negative scores and ties. Draws are not a valid
// outcome.
func ValidateScore(score1, score2 int) error {
	if score1 < 0 || score2 < 0 {
		return invalid("score", "negative score %d-%d", score1, score2)
	}
	if score1 == score2 {
		return invalid("score", "tied score %d-%d", score1, score2)
	}
	return nil
}

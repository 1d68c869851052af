package rating

import "slices"

// Compare orders matches by play time, then by insertion instant. It is the
// only order a replay may fold matches in.
func Compare(a, b Match) int {
	if c := a.PlayedAt.Compare(b.PlayedAt); c != 0 {
		return c
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

// Sort returns a sorted copy of matches. Two matches with an identical key are
// reported as an *OrderingConflictError instead of being ordered arbitrarily.
func Sort(matches []Match) ([]Match, error) {
	sorted := slices.Clone(matches)
	slices.SortStableFunc(sorted, Compare)
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if Compare(prev, cur) == 0 {
			return nil, &OrderingConflictError{
				First:     prev.ID,
				Second:    cur.ID,
				PlayedAt:  cur.PlayedAt,
				CreatedAt: cur.CreatedAt,
			}
		}
	}
	return sorted, nil
}

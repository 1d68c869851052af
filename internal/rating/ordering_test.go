package rating

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestCompare(t *testing.T) {
	a := Match{ID: "a", PlayedAt: at(18, 0), CreatedAt: at(20, 0)}
	b := Match{ID: "b", PlayedAt: at(18, 30), CreatedAt: at(19, 0)}
	c := Match{ID: "c", PlayedAt: at(18, 0), CreatedAt: at(21, 0)}

	assert.Equal(t, -1, Compare(a, b), "play time wins over insertion time")
	assert.Equal(t, 1, Compare(b, a))
	assert.Equal(t, -1, Compare(a, c), "insertion instant breaks ties")
	assert.Equal(t, 0, Compare(a, a))
}

func TestSort(t *testing.T) {
	t.Run("returns a sorted copy", func(t *testing.T) {
		in := []Match{
			{ID: "late", PlayedAt: at(21, 0), CreatedAt: at(21, 5)},
			{ID: "tie-second", PlayedAt: at(19, 0), CreatedAt: at(19, 30)},
			{ID: "tie-first", PlayedAt: at(19, 0), CreatedAt: at(19, 10)},
			{ID: "early", PlayedAt: at(8, 0), CreatedAt: at(22, 0)},
		}

		out, err := Sort(in)
		require.NoError(t, err)

		ids := make([]string, len(out))
		for i, m := range out {
			ids[i] = m.ID
		}
		assert.Equal(t, []string{"early", "tie-first", "tie-second", "late"}, ids)
		assert.Equal(t, "late", in[0].ID, "input must not be reordered")
	})

	t.Run("rejects identical ordering keys", func(t *testing.T) {
		in := []Match{
			{ID: "x", PlayedAt: at(18, 0), CreatedAt: at(18, 1)},
			{ID: "y", PlayedAt: at(18, 0), CreatedAt: at(18, 1)},
		}

		_, err := Sort(in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrOrderingConflict))
		assert.False(t, errors.Is(err, ErrValidation), "conflicts are not validation errors")

		var conflict *OrderingConflictError
		require.True(t, errors.As(err, &conflict))
		assert.ElementsMatch(t, []string{"x", "y"}, []string{conflict.First, conflict.Second})
	})

	t.Run("instants in different zones compare equal", func(t *testing.T) {
		est := time.FixedZone("EST", -5*3600)
		in := []Match{
			{ID: "utc", PlayedAt: at(18, 0), CreatedAt: at(18, 1)},
			{ID: "est", PlayedAt: at(18, 0).In(est), CreatedAt: at(18, 1).In(est)},
		}
		_, err := Sort(in)
		assert.ErrorIs(t, err, ErrOrderingConflict)
	})
}

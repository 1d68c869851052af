package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextRating(t *testing.T) {
	t.Run("even match uses asymmetric K-factors", func(t *testing.T) {
		// 1200 + 35*0.5 = 1217.5 -> 1218; 1200 - 29*0.5 = 1185.5 -> 1186
		assert.Equal(t, 1218, NextRating(1200, 1200, true))
		assert.Equal(t, 1186, NextRating(1200, 1200, false))
	})

	t.Run("net inflation of an even 2v2 is positive and below 10", func(t *testing.T) {
		winGain := NextRating(1200, 1200, true) - 1200
		lossDrop := 1200 - NextRating(1200, 1200, false)
		assert.Equal(t, 18, winGain)
		assert.Equal(t, 14, lossDrop)

		net := 2*winGain - 2*lossDrop
		assert.Equal(t, 8, net)
		assert.Greater(t, net, 0)
		assert.Less(t, net, 10)
	})

	t.Run("upsets move more points than expected wins", func(t *testing.T) {
		upsetGain := NextRating(1100, 1300, true) - 1100
		expectedGain := NextRating(1300, 1100, true) - 1300
		assert.Equal(t, 27, upsetGain)
		assert.Equal(t, 8, expectedGain)
		assert.Greater(t, upsetGain, expectedGain)

		favouriteDrop := 1300 - NextRating(1300, 1100, false)
		assert.Equal(t, 22, favouriteDrop)
	})

	t.Run("clamps to the upper bound", func(t *testing.T) {
		assert.Equal(t, MaxRating, NextRating(2395, 2395, true))
		assert.Equal(t, MaxRating, NextRating(MaxRating, MinRating, true))
	})

	t.Run("clamps to the lower bound", func(t *testing.T) {
		assert.Equal(t, MinRating, NextRating(805, 805, false))
		assert.Equal(t, MinRating, NextRating(MinRating, MaxRating, false))
	})

	t.Run("is deterministic", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			assert.Equal(t, NextRating(1234, 1187.5, i%2 == 0), NextRating(1234, 1187.5, i%2 == 0))
		}
	})
}

func TestExpectedScore(t *testing.T) {
	assert.InDelta(t, 0.5, ExpectedScore(1200, 1200), 1e-12)
	assert.InDelta(t, 0.7597, ExpectedScore(1300, 1100), 1e-4)
	assert.InDelta(t, 1.0, ExpectedScore(1500, 1500)+ExpectedScore(1500, 1500), 1e-12)
}

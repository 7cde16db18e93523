package prediction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoissonProbability(t *testing.T) {
	assert.InDelta(t, math.Exp(-1.5), PoissonProbability(0, 1.5), 1e-12)
	assert.InDelta(t, 1.125*math.Exp(-1.5), PoissonProbability(2, 1.5), 1e-12)
	assert.Equal(t, 1.0, PoissonProbability(0, 0))
	assert.Equal(t, 0.0, PoissonProbability(3, 0))
	assert.Equal(t, 0.0, PoissonProbability(-1, 1.5))
}

func TestScorelineDistributionIsNormalized(t *testing.T) {
	grid := ScorelineDistribution(1.5, 1.2, 5)

	assert.Len(t, grid, 6)
	assert.Len(t, grid.Scorelines(), 36)
	assert.InDelta(t, 1.0, grid.Total(), 1e-6)

	h, d, a := grid.Outcomes()
	assert.InDelta(t, 1.0, h+d+a, 1e-9)
	assert.Greater(t, h, a)

	assert.GreaterOrEqual(t, grid.Over(1.5), grid.Over(2.5))
	assert.GreaterOrEqual(t, grid.Over(2.5), grid.Over(3.5))
	assert.Greater(t, grid.BothTeamsScore(), 0.0)
	assert.Less(t, grid.BothTeamsScore(), 1.0)
}

func TestScorelineDistributionKeepsRelativeWeights(t *testing.T) {
	grid := ScorelineDistribution(1.5, 1.2, 5)

	want := PoissonProbability(1, 1.5) * PoissonProbability(1, 1.2) / (PoissonProbability(0, 1.5) * PoissonProbability(0, 1.2))
	assert.InDelta(t, want, grid[1][1]/grid[0][0], 1e-9)
}

func TestApproxGoalMarkets(t *testing.T) {
	p := DefaultParams().Markets

	assert.Equal(t, GoalMarkets{Over15: 5, Over25: 5, Over35: 5}, ApproxGoalMarkets(0, p))
	assert.Equal(t, GoalMarkets{Over15: 86.5, Over25: 77.7, Over35: 63.2}, ApproxGoalMarkets(2.5, p))
	assert.Equal(t, GoalMarkets{Over15: 95, Over25: 90, Over35: 85}, ApproxGoalMarkets(20, p))
}

func TestApproxGoalMarketsMonotonic(t *testing.T) {
	p := DefaultParams().Markets

	prev := ApproxGoalMarkets(0, p)
	for total := 0.0; total <= 8; total += 0.1 {
		m := ApproxGoalMarkets(total, p)
		assert.GreaterOrEqual(t, m.Over15, m.Over25, "total %.1f", total)
		assert.GreaterOrEqual(t, m.Over25, m.Over35, "total %.1f", total)
		assert.GreaterOrEqual(t, m.Over15, prev.Over15, "total %.1f", total)
		assert.GreaterOrEqual(t, m.Over25, prev.Over25, "total %.1f", total)
		assert.GreaterOrEqual(t, m.Over35, prev.Over35, "total %.1f", total)
		prev = m
	}
}

func TestBTTSFromExpectedGoals(t *testing.T) {
	assert.Equal(t, 54.3, BTTSFromExpectedGoals(1.5, 1.2))
	assert.Equal(t, 0.0, BTTSFromExpectedGoals(0, 2))
	assert.Equal(t, 0.0, BTTSFromExpectedGoals(-1, 2))
}

package prediction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func derbySource() *memorySource {
	return newMemorySource(
		fixture("2024-05-01", "arsenal", "chelsea"),
		played("2024-01-10", "arsenal", "chelsea", 2, 0),
		played("2023-10-01", "chelsea", "arsenal", 1, 1),
		played("2023-05-01", "chelsea", "arsenal", 3, 1),
		played("2023-04-01", "liverpool", "everton", 2, 2),
	)
}

func TestHeadToHeadReorientsMeetings(t *testing.T) {
	s := NewStats(derbySource(), DefaultParams())
	ctx := context.Background()

	h2h, err := s.HeadToHead(ctx, "arsenal", "chelsea", 20)
	require.NoError(t, err)
	assert.Equal(t, HeadToHead{
		TotalMatches:   3,
		HomeWins:       1,
		Draws:          1,
		AwayWins:       1,
		AvgGoalsHome:   1.33,
		AvgGoalsAway:   1.33,
		BTTSPercentage: 66.7,
	}, h2h)

	reversed, err := s.HeadToHead(ctx, "chelsea", "arsenal", 20)
	require.NoError(t, err)
	assert.Equal(t, h2h.HomeWins, reversed.AwayWins)
	assert.Equal(t, h2h.AwayWins, reversed.HomeWins)
	assert.Equal(t, h2h.Draws, reversed.Draws)
}

func TestHeadToHeadWithoutMeetings(t *testing.T) {
	s := NewStats(derbySource(), DefaultParams())

	h2h, err := s.HeadToHead(context.Background(), "arsenal", "liverpool", 20)
	require.NoError(t, err)
	assert.Equal(t, HeadToHead{}, h2h)
}

func TestTeamForm(t *testing.T) {
	s := NewStats(derbySource(), DefaultParams())

	f, err := s.TeamForm(context.Background(), "arsenal", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, f.TotalMatches)
	assert.Equal(t, 1, f.Wins)
	assert.Equal(t, 1, f.Draws)
	assert.Equal(t, 1, f.Losses)
	assert.Equal(t, 4, f.Points)
	assert.InDelta(t, 4.0/9.0, f.FormIndex, 1e-9)
	assert.InDelta(t, 4.0/3.0, f.AvgGoalsFor, 1e-9)
	assert.InDelta(t, 4.0/3.0, f.AvgGoalsAgainst, 1e-9)
}

func TestTeamFormNeutralPriors(t *testing.T) {
	s := NewStats(newMemorySource(fixture("2024-05-01", "luton", "burnley")), DefaultParams())

	f, err := s.TeamForm(context.Background(), "luton", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, f.TotalMatches)
	assert.Equal(t, 0.5, f.FormIndex)
	assert.Equal(t, 1.0, f.AvgGoalsFor)
	assert.Equal(t, 1.0, f.AvgGoalsAgainst)
}

func TestScoringRate(t *testing.T) {
	src := derbySource()
	s := NewStats(src, DefaultParams())

	assert.Equal(t, 1.0, s.ScoringRate(src.matches[:4], "arsenal"))
	assert.InDelta(t, 2.0/3.0, s.ScoringRate(src.matches[:4], "chelsea"), 1e-9)
	assert.Equal(t, 0.7, s.ScoringRate([]Match{fixture("2024-05-01", "luton", "burnley")}, "luton"))
	assert.Equal(t, 0.7, s.ScoringRate(nil, "luton"))
}

func TestMomentumWalksOldestToNewest(t *testing.T) {
	s := NewStats(nil, DefaultParams())

	// mais recente primeiro, como RecentMatches devolve
	recentWin := []Match{
		played("2024-03-01", "arsenal", "chelsea", 2, 0),
		played("2024-02-01", "arsenal", "everton", 0, 1),
		played("2024-01-01", "arsenal", "fulham", 0, 1),
	}
	oldWin := []Match{
		played("2024-03-01", "arsenal", "chelsea", 0, 1),
		played("2024-02-01", "arsenal", "everton", 0, 1),
		played("2024-01-01", "arsenal", "fulham", 2, 0),
	}

	assert.InDelta(t, 3*0.8*0.8, s.Momentum(recentWin, "arsenal"), 1e-9)
	assert.InDelta(t, 3.0, s.Momentum(oldWin, "arsenal"), 1e-9)

	twoMatches := []Match{
		played("2024-02-01", "arsenal", "chelsea", 2, 0),
		played("2024-01-01", "arsenal", "everton", 0, 1),
	}
	assert.InDelta(t, 2.4, s.Momentum(twoMatches, "arsenal"), 1e-9)
}

func TestMomentumSkipsUnplayed(t *testing.T) {
	s := NewStats(nil, DefaultParams())

	matches := []Match{
		fixture("2024-04-01", "arsenal", "chelsea"),
		played("2024-03-01", "everton", "arsenal", 1, 1),
		played("2024-02-01", "everton", "arsenal", 0, 2),
	}
	assert.InDelta(t, 3+1*0.8, s.Momentum(matches, "arsenal"), 1e-9)
	assert.Zero(t, s.Momentum(nil, "arsenal"))
}

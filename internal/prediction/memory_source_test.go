package prediction

import (
	"context"
	"math"
	"sort"
	"sync/atomic"
)

// memorySource é um MatchSource em memória com a mesma semântica das queries SQL
type memorySource struct {
	matches []Match
	err     error
	calls   atomic.Int64
}

func newMemorySource(matches ...Match) *memorySource {
	return &memorySource{matches: matches}
}

func played(date, home, away string, hs, as int) Match {
	return Match{Date: date, HomeTeam: home, AwayTeam: away, HomeScore: &hs, AwayScore: &as, Season: "2023-24", Competition: "Premier League"}
}

func fixture(date, home, away string) Match {
	return Match{Date: date, HomeTeam: home, AwayTeam: away, Season: "2023-24", Competition: "Premier League"}
}

func (s *memorySource) sorted(keep func(Match) bool, limit int) []Match {
	var out []Match
	for _, m := range s.matches {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memorySource) MatchesBetween(_ context.Context, a, b string, limit int) ([]Match, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.sorted(func(m Match) bool {
		return (m.HomeTeam == a && m.AwayTeam == b) || (m.HomeTeam == b && m.AwayTeam == a)
	}, limit), nil
}

func (s *memorySource) RecentMatches(_ context.Context, team string, limit int, season string) ([]Match, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.sorted(func(m Match) bool {
		return (m.HomeTeam == team || m.AwayTeam == team) && (season == "" || m.Season == season)
	}, limit), nil
}

func (s *memorySource) TeamStats(_ context.Context, team, season string) (TeamStats, error) {
	s.calls.Add(1)
	if s.err != nil {
		return TeamStats{}, s.err
	}
	var st TeamStats
	var gf, ga int
	for _, m := range s.matches {
		if !m.Played() || (m.HomeTeam != team && m.AwayTeam != team) || (season != "" && m.Season != season) {
			continue
		}
		f, a := m.scoresFor(team)
		st.TotalMatches++
		gf += f
		ga += a
		switch {
		case f > a:
			st.Wins++
		case f < a:
			st.Losses++
		default:
			st.Draws++
		}
	}
	if st.TotalMatches == 0 {
		return st, nil
	}
	n := float64(st.TotalMatches)
	r2 := func(v float64) float64 { return math.Round(v*100) / 100 }
	st.WinRate = r2(float64(st.Wins) / n * 100)
	st.AvgGoalsFor = r2(float64(gf) / n)
	st.AvgGoalsAgainst = r2(float64(ga) / n)
	st.GoalDifference = r2(st.AvgGoalsFor - st.AvgGoalsAgainst)
	return st, nil
}

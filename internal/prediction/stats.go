package prediction

import (
	"context"
	"math"
)

// Stats agrega o histórico do MatchSource em resumos usados pelas estratégias
type Stats struct {
	src    MatchSource
	params Params
}

func NewStats(src MatchSource, p Params) *Stats {
	return &Stats{src: src, params: p}
}

// HeadToHead busca os confrontos em ambos os mandos e reorienta cada um para
// a perspectiva de home (o mandante consultado).
func (s *Stats) HeadToHead(ctx context.Context, home, away string, limit int) (HeadToHead, error) {
	matches, err := s.src.MatchesBetween(ctx, home, away, limit)
	if err != nil {
		return HeadToHead{}, err
	}

	var h2h HeadToHead
	var goalsHome, goalsAway, btts int
	for _, m := range matches {
		if !m.Played() {
			continue
		}
		hg, ag := m.scoresFor(home)
		h2h.TotalMatches++
		goalsHome += hg
		goalsAway += ag
		switch {
		case hg > ag:
			h2h.HomeWins++
		case hg < ag:
			h2h.AwayWins++
		default:
			h2h.Draws++
		}
		if hg > 0 && ag > 0 {
			btts++
		}
	}

	if h2h.TotalMatches > 0 {
		n := float64(h2h.TotalMatches)
		h2h.AvgGoalsHome = round2(float64(goalsHome) / n)
		h2h.AvgGoalsAway = round2(float64(goalsAway) / n)
		h2h.BTTSPercentage = round1(float64(btts) / n * 100)
	}
	return h2h, nil
}

// TeamForm resume as últimas window partidas (jogadas) do time.
// Sem partidas: form 0.5 e média de 1 gol para cada lado.
func (s *Stats) TeamForm(ctx context.Context, team string, window int) (TeamForm, error) {
	matches, err := s.src.RecentMatches(ctx, team, window, "")
	if err != nil {
		return TeamForm{}, err
	}
	return summarizeForm(matches, team), nil
}

func summarizeForm(matches []Match, team string) TeamForm {
	var f TeamForm
	var goalsFor, goalsAgainst int
	for _, m := range matches {
		if !m.Played() {
			continue
		}
		gf, ga := m.scoresFor(team)
		f.TotalMatches++
		goalsFor += gf
		goalsAgainst += ga
		switch {
		case gf > ga:
			f.Wins++
			f.Points += 3
		case gf == ga:
			f.Draws++
			f.Points++
		default:
			f.Losses++
		}
	}

	if f.TotalMatches == 0 {
		f.FormIndex = 0.5
		f.AvgGoalsFor = 1.0
		f.AvgGoalsAgainst = 1.0
		return f
	}
	n := float64(f.TotalMatches)
	f.FormIndex = float64(f.Points) / (3 * n)
	f.AvgGoalsFor = float64(goalsFor) / n
	f.AvgGoalsAgainst = float64(goalsAgainst) / n
	return f
}

// ScoringRate é a fração de partidas jogadas em que team marcou
func (s *Stats) ScoringRate(matches []Match, team string) float64 {
	played, scored := 0, 0
	for _, m := range matches {
		if !m.Played() {
			continue
		}
		played++
		if gf, _ := m.scoresFor(team); gf > 0 {
			scored++
		}
	}
	if played == 0 {
		return s.params.DefaultScoringRate
	}
	return float64(scored) / float64(played)
}

// Momentum pondera resultados: vitória 3, empate 1, derrota 0.
// matches chega da mais recente para a mais antiga e é percorrido da mais
// antiga para a mais recente; o peso começa em 1 e decai a cada partida jogada.
func (s *Stats) Momentum(matches []Match, team string) float64 {
	weight := 1.0
	momentum := 0.0
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if !m.Played() {
			continue
		}
		gf, ga := m.scoresFor(team)
		switch {
		case gf > ga:
			momentum += 3 * weight
		case gf == ga:
			momentum += weight
		}
		weight *= s.params.Trends.MomentumDecay
	}
	return momentum
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

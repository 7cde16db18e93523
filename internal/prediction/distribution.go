package prediction

import (
	"fmt"
	"math"
)

// GoalMarkets são as probabilidades (percentual) de over 1.5, 2.5 e 3.5 gols
type GoalMarkets struct {
	Over15 float64 `json:"over15"`
	Over25 float64 `json:"over25"`
	Over35 float64 `json:"over35"`
}

// PoissonProbability = λ^k · e^(−λ) / k!
func PoissonProbability(k int, lambda float64) float64 {
	if k < 0 || lambda < 0 {
		return 0
	}
	lg, _ := math.Lgamma(float64(k) + 1)
	if lambda == 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	return math.Exp(float64(k)*math.Log(lambda) - lambda - lg)
}

// ScorelineGrid[h][a] é a probabilidade do placar h-a
type ScorelineGrid [][]float64

// ScorelineDistribution monta a grade 0..maxGoals para cada lado, com gols
// independentes. A massa além de maxGoals é redistribuída proporcionalmente,
// então a grade soma 1.
func ScorelineDistribution(homeExpected, awayExpected float64, maxGoals int) ScorelineGrid {
	homePMF := make([]float64, maxGoals+1)
	awayPMF := make([]float64, maxGoals+1)
	for k := 0; k <= maxGoals; k++ {
		homePMF[k] = PoissonProbability(k, homeExpected)
		awayPMF[k] = PoissonProbability(k, awayExpected)
	}

	grid := make(ScorelineGrid, maxGoals+1)
	total := 0.0
	for h := range grid {
		grid[h] = make([]float64, maxGoals+1)
		for a := range grid[h] {
			grid[h][a] = homePMF[h] * awayPMF[a]
			total += grid[h][a]
		}
	}
	if total > 0 {
		for h := range grid {
			for a := range grid[h] {
				grid[h][a] /= total
			}
		}
	}
	return grid
}

func (g ScorelineGrid) Total() float64 {
	sum := 0.0
	for h := range g {
		for a := range g[h] {
			sum += g[h][a]
		}
	}
	return sum
}

// Outcomes devolve P(mandante), P(empate), P(visitante)
func (g ScorelineGrid) Outcomes() (home, draw, away float64) {
	for h := range g {
		for a, p := range g[h] {
			switch {
			case h > a:
				home += p
			case h == a:
				draw += p
			default:
				away += p
			}
		}
	}
	return home, draw, away
}

func (g ScorelineGrid) BothTeamsScore() float64 {
	sum := 0.0
	for h := 1; h < len(g); h++ {
		for a := 1; a < len(g[h]); a++ {
			sum += g[h][a]
		}
	}
	return sum
}

// Over soma os placares com total de gols acima da linha
func (g ScorelineGrid) Over(line float64) float64 {
	sum := 0.0
	for h := range g {
		for a, p := range g[h] {
			if float64(h+a) > line {
				sum += p
			}
		}
	}
	return sum
}

// GoalMarkets exatos da grade, em percentual com 1 casa
func (g ScorelineGrid) GoalMarkets() GoalMarkets {
	return GoalMarkets{
		Over15: round1(g.Over(1.5) * 100),
		Over25: round1(g.Over(2.5) * 100),
		Over35: round1(g.Over(3.5) * 100),
	}
}

// Scorelines expõe a grade como mapa "h-a" → probabilidade
func (g ScorelineGrid) Scorelines() map[string]float64 {
	out := make(map[string]float64, len(g)*len(g))
	for h := range g {
		for a, p := range g[h] {
			out[fmt.Sprintf("%d-%d", h, a)] = p
		}
	}
	return out
}

// ApproxGoalMarkets é a forma fechada usada quando não há grade:
// clamp(floor, cap, (1 − e^(−total·k))·100). O mesmo piso para todas as
// linhas mantém over15 ≥ over25 ≥ over35.
func ApproxGoalMarkets(totalExpected float64, p MarketParams) GoalMarkets {
	if totalExpected < 0 {
		totalExpected = 0
	}
	line := func(decay, upper float64) float64 {
		return round1(clamp((1-math.Exp(-totalExpected*decay))*100, p.Floor, upper))
	}
	return GoalMarkets{
		Over15: line(p.Decay15, p.Cap15),
		Over25: line(p.Decay25, p.Cap25),
		Over35: line(p.Decay35, p.Cap35),
	}
}

// BTTSFromExpectedGoals = P(mandante marca) · P(visitante marca), em percentual
func BTTSFromExpectedGoals(homeExpected, awayExpected float64) float64 {
	h := math.Max(homeExpected, 0)
	a := math.Max(awayExpected, 0)
	return round1((1 - math.Exp(-h)) * (1 - math.Exp(-a)) * 100)
}

package prediction

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

const (
	// default: confiança = qualidade do H2H (satura em 10 jogos) + equilíbrio de forma
	h2hSaturation    = 10.0
	h2hQualityWeight = 0.6
	formGapWeight    = 0.4

	// attack_defense: confiança cresce com o volume de jogos até 40
	volumeSaturation = 40.0
	volumeWeight     = 0.3

	// elo: fatias do total médio de gols para mandante e visitante
	eloHomeGoalShare = 0.6
	eloAwayGoalShare = 0.4
	eloStrengthScale = 200.0
	eloStrengthShift = 0.1
)

// Features alimentam as árvores do random_forest
type Features struct {
	HomeAttack          float64 `json:"home_attack"`
	HomeDefenseStrength float64 `json:"home_defense_strength"`
	AwayAttack          float64 `json:"away_attack"`
	AwayDefenseStrength float64 `json:"away_defense_strength"`
	HomeWinRate         float64 `json:"home_win_rate"`
	AwayWinRate         float64 `json:"away_win_rate"`
}

// normalize zera negativos e escala os três valores para somar 100
func normalize(h, d, a float64) (float64, float64, float64) {
	h, d, a = math.Max(h, 0), math.Max(d, 0), math.Max(a, 0)
	total := h + d + a
	if total == 0 {
		return 100.0 / 3, 100.0 / 3, 100.0 / 3
	}
	return h / total * 100, d / total * 100, a / total * 100
}

func (e *Engine) predictDefault(ctx context.Context, home, away string) (Result, error) {
	p := e.params

	h2h, err := e.stats.HeadToHead(ctx, home, away, p.H2HLimit)
	if err != nil {
		return Result{}, err
	}
	homeForm, err := e.stats.TeamForm(ctx, home, p.FormWindow)
	if err != nil {
		return Result{}, err
	}
	awayForm, err := e.stats.TeamForm(ctx, away, p.FormWindow)
	if err != nil {
		return Result{}, err
	}

	n := float64(max(h2h.TotalMatches, 1))
	hp := float64(h2h.HomeWins) / n * 100
	dp := float64(h2h.Draws) / n * 100
	ap := float64(h2h.AwayWins) / n * 100

	formFactor := (homeForm.FormIndex - awayForm.FormIndex) * p.FormFactorWeight
	hp += formFactor + p.HomeAdvantage*100
	ap -= formFactor
	hp, dp, ap = normalize(hp, dp, ap)

	xgHome := math.Max(homeForm.AvgGoalsFor*(1+p.HomeAdvantage), 0)
	xgAway := math.Max(awayForm.AvgGoalsFor*(1-p.HomeAdvantage/2), 0)

	btts, err := e.bothTeamsScore(ctx, home, away)
	if err != nil {
		return Result{}, err
	}

	quality := math.Min(float64(h2h.TotalMatches)/h2hSaturation, 1)
	balance := 1 - math.Abs(homeForm.FormIndex-awayForm.FormIndex)

	return Result{
		HomeWinProbability: round1(hp),
		DrawProbability:    round1(dp),
		AwayWinProbability: round1(ap),
		ExpectedGoals:      ExpectedGoals{Home: round2(xgHome), Away: round2(xgAway)},
		BothTeamsScore:     btts,
		TotalGoals:         ApproxGoalMarkets(xgHome+xgAway, p.Markets),
		Confidence:         round2(clamp(quality*h2hQualityWeight+balance*formGapWeight, 0, 1)),
		Details: map[string]any{
			"h2h_stats": h2h,
			"home_form": homeForm,
			"away_form": awayForm,
		},
	}, nil
}

// bothTeamsScore usa a taxa de gols marcados nas últimas partidas de cada lado
func (e *Engine) bothTeamsScore(ctx context.Context, home, away string) (float64, error) {
	window := e.params.BTTSWindow
	homeMatches, err := e.src.RecentMatches(ctx, home, window, "")
	if err != nil {
		return 0, err
	}
	awayMatches, err := e.src.RecentMatches(ctx, away, window, "")
	if err != nil {
		return 0, err
	}
	rate := e.stats.ScoringRate(homeMatches, home) * e.stats.ScoringRate(awayMatches, away)
	return round1(rate * 100), nil
}

func (e *Engine) seasonStats(ctx context.Context, home, away, season string) (TeamStats, TeamStats, error) {
	hs, err := e.src.TeamStats(ctx, home, season)
	if err != nil {
		return TeamStats{}, TeamStats{}, err
	}
	as, err := e.src.TeamStats(ctx, away, season)
	if err != nil {
		return TeamStats{}, TeamStats{}, err
	}
	return hs, as, nil
}

func (e *Engine) predictAttackDefense(ctx context.Context, home, away, season string) (Result, error) {
	p := e.params.AttackDefense
	hs, as, err := e.seasonStats(ctx, home, away, season)
	if err != nil {
		return Result{}, err
	}

	xgHome := math.Max(hs.AvgGoalsFor/math.Max(as.AvgGoalsAgainst, p.MinDefense)*p.HomeMultiplier, 0)
	xgAway := math.Max(as.AvgGoalsFor/math.Max(hs.AvgGoalsAgainst, p.MinDefense), 0)

	var hp, ap float64
	gap := xgHome - xgAway
	switch {
	case gap > p.EvenGap:
		hp = 50 + math.Min(gap*10, 35)
		ap = 50 - math.Min(gap*8, 30)
	case gap < -p.EvenGap:
		ap = 50 + math.Min(-gap*10, 35)
		hp = 50 - math.Min(-gap*8, 30)
	default:
		hp, ap = 35, 35
	}
	dp := math.Max(100-hp-ap, p.MinDraw)
	hp, dp, ap = normalize(hp, dp, ap)

	volume := math.Min(float64(hs.TotalMatches+as.TotalMatches)/volumeSaturation, 1)

	return Result{
		HomeWinProbability: round1(hp),
		DrawProbability:    round1(dp),
		AwayWinProbability: round1(ap),
		ExpectedGoals:      ExpectedGoals{Home: round2(xgHome), Away: round2(xgAway)},
		BothTeamsScore:     BTTSFromExpectedGoals(xgHome, xgAway),
		TotalGoals:         ApproxGoalMarkets(xgHome+xgAway, e.params.Markets),
		Confidence:         round2(clamp(p.Confidence+volume*volumeWeight, 0, 1)),
		Details: map[string]any{
			"home_stats": hs,
			"away_stats": as,
		},
	}, nil
}

func (e *Engine) predictPoisson(ctx context.Context, home, away, season string) (Result, error) {
	p := e.params.Poisson
	hs, as, err := e.seasonStats(ctx, home, away, season)
	if err != nil {
		return Result{}, err
	}

	xgHome := math.Max(hs.AvgGoalsFor*p.HomeMultiplier, 0)
	xgAway := math.Max(as.AvgGoalsFor, 0)

	grid := ScorelineDistribution(xgHome, xgAway, p.MaxGoals)
	hp, dp, ap := grid.Outcomes()

	return Result{
		HomeWinProbability: round1(hp * 100),
		DrawProbability:    round1(dp * 100),
		AwayWinProbability: round1(ap * 100),
		ExpectedGoals:      ExpectedGoals{Home: round2(xgHome), Away: round2(xgAway)},
		BothTeamsScore:     round1(grid.BothTeamsScore() * 100),
		TotalGoals:         grid.GoalMarkets(),
		Confidence:         p.Confidence,
	}, nil
}

func (e *Engine) predictElo(ctx context.Context, home, away, season string) (Result, error) {
	p := e.params.Elo
	homeElo, err := e.rating.Rating(ctx, home, season)
	if err != nil {
		return Result{}, err
	}
	awayElo, err := e.rating.Rating(ctx, away, season)
	if err != nil {
		return Result{}, err
	}

	diff := float64(homeElo - awayElo)
	expected := 1 / (1 + math.Pow(10, -diff/p.Scale))
	hp := expected * p.WinShare * 100
	ap := (1 - expected) * p.WinShare * 100
	dp := 100 - hp - ap

	strength := diff / eloStrengthScale * eloStrengthShift
	xgHome := math.Max(p.AvgGoals*(eloHomeGoalShare+strength), 0)
	xgAway := math.Max(p.AvgGoals*(eloAwayGoalShare-strength), 0)

	return Result{
		HomeWinProbability: round1(hp),
		DrawProbability:    round1(dp),
		AwayWinProbability: round1(ap),
		ExpectedGoals:      ExpectedGoals{Home: round2(xgHome), Away: round2(xgAway)},
		BothTeamsScore:     BTTSFromExpectedGoals(xgHome, xgAway),
		TotalGoals:         ApproxGoalMarkets(xgHome+xgAway, e.params.Markets),
		Confidence:         p.Confidence,
		Details: map[string]any{
			"home_elo":       homeElo,
			"away_elo":       awayElo,
			"elo_difference": homeElo - awayElo,
		},
	}, nil
}

// predictEnsemble roda as quatro estratégias base em paralelo. Cada uma escreve
// no próprio slot, então a combinação não depende da ordem de término.
func (e *Engine) predictEnsemble(ctx context.Context, home, away, season string) (Result, error) {
	w := e.params.Ensemble
	parts := []struct {
		alg    Algorithm
		weight float64
	}{
		{AlgorithmDefault, w.Default},
		{AlgorithmAttackDefense, w.AttackDefense},
		{AlgorithmPoisson, w.Poisson},
		{AlgorithmElo, w.Elo},
	}

	results := make([]Result, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			r, err := e.Predict(gctx, home, away, part.alg, season)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var hp, dp, ap, xgHome, xgAway, btts float64
	weights := make(map[string]float64, len(parts))
	for i, part := range parts {
		r := results[i]
		hp += r.HomeWinProbability * part.weight
		dp += r.DrawProbability * part.weight
		ap += r.AwayWinProbability * part.weight
		xgHome += r.ExpectedGoals.Home * part.weight
		xgAway += r.ExpectedGoals.Away * part.weight
		btts += r.BothTeamsScore * part.weight
		weights[string(part.alg)] = part.weight
	}

	return Result{
		HomeWinProbability: round1(hp),
		DrawProbability:    round1(dp),
		AwayWinProbability: round1(ap),
		ExpectedGoals:      ExpectedGoals{Home: round2(xgHome), Away: round2(xgAway)},
		BothTeamsScore:     round1(btts),
		TotalGoals:         ApproxGoalMarkets(xgHome+xgAway, e.params.Markets),
		Confidence:         w.Confidence,
		Details:            map[string]any{"weights": weights},
	}, nil
}

// voteTree é a regra fixa de cada árvore
func (e *Engine) voteTree(f Features) string {
	p := e.params.Forest
	switch {
	case f.HomeAttack > f.AwayDefenseStrength+p.AttackMargin:
		return ResultHome
	case f.AwayAttack > f.HomeDefenseStrength+p.AttackMargin:
		return ResultAway
	case math.Abs(f.HomeWinRate-f.AwayWinRate) < p.DrawMargin:
		return ResultDraw
	case f.HomeWinRate > f.AwayWinRate:
		return ResultHome
	default:
		return ResultAway
	}
}

// predictRandomForest: todas as árvores aplicam a mesma regra sobre as mesmas
// features, então uma avaliação basta e o voto vale o total de árvores.
func (e *Engine) predictRandomForest(ctx context.Context, home, away, season string) (Result, error) {
	p := e.params.Forest
	hs, as, err := e.seasonStats(ctx, home, away, season)
	if err != nil {
		return Result{}, err
	}

	f := Features{
		HomeAttack:          hs.AvgGoalsFor,
		HomeDefenseStrength: 1 / math.Max(hs.AvgGoalsAgainst, p.MinDefense),
		AwayAttack:          as.AvgGoalsFor,
		AwayDefenseStrength: 1 / math.Max(as.AvgGoalsAgainst, p.MinDefense),
		HomeWinRate:         hs.WinRate / 100,
		AwayWinRate:         as.WinRate / 100,
	}

	votes := map[string]int{ResultHome: 0, ResultDraw: 0, ResultAway: 0}
	votes[e.voteTree(f)] = p.Trees
	trees := float64(p.Trees)

	xgHome := math.Max(f.HomeAttack*(1-f.AwayDefenseStrength), 0)
	xgAway := math.Max(f.AwayAttack*(1-f.HomeDefenseStrength), 0)

	return Result{
		HomeWinProbability: round1(float64(votes[ResultHome]) / trees * 100),
		DrawProbability:    round1(float64(votes[ResultDraw]) / trees * 100),
		AwayWinProbability: round1(float64(votes[ResultAway]) / trees * 100),
		ExpectedGoals:      ExpectedGoals{Home: round2(xgHome), Away: round2(xgAway)},
		BothTeamsScore:     BTTSFromExpectedGoals(xgHome, xgAway),
		TotalGoals:         ApproxGoalMarkets(xgHome+xgAway, e.params.Markets),
		Confidence:         p.Confidence,
		Details: map[string]any{
			"features": f,
			"votes":    votes,
		},
	}, nil
}

func (e *Engine) predictSeasonalTrends(ctx context.Context, home, away string) (Result, error) {
	p := e.params

	homeForm, err := e.stats.TeamForm(ctx, home, p.TrendWindow)
	if err != nil {
		return Result{}, err
	}
	awayForm, err := e.stats.TeamForm(ctx, away, p.TrendWindow)
	if err != nil {
		return Result{}, err
	}
	homeRecent, err := e.src.RecentMatches(ctx, home, p.MomentumWindow, "")
	if err != nil {
		return Result{}, err
	}
	awayRecent, err := e.src.RecentMatches(ctx, away, p.MomentumWindow, "")
	if err != nil {
		return Result{}, err
	}
	homeMomentum := e.stats.Momentum(homeRecent, home)
	awayMomentum := e.stats.Momentum(awayRecent, away)

	base, err := e.predictDefault(ctx, home, away)
	if err != nil {
		return Result{}, err
	}

	adj := (homeMomentum - awayMomentum) * p.Trends.MomentumStep
	hp := round1(clamp(base.HomeWinProbability+adj, p.Trends.Min, p.Trends.Max))
	ap := round1(clamp(base.AwayWinProbability-adj, p.Trends.Min, p.Trends.Max))
	dp := round1(math.Max(100-hp-ap, 0))

	return Result{
		HomeWinProbability: hp,
		DrawProbability:    dp,
		AwayWinProbability: ap,
		ExpectedGoals:      base.ExpectedGoals,
		BothTeamsScore:     base.BothTeamsScore,
		TotalGoals:         base.TotalGoals,
		Confidence:         p.Trends.Confidence,
		Details: map[string]any{
			"home_momentum":       round2(homeMomentum),
			"away_momentum":       round2(awayMomentum),
			"momentum_difference": round2(homeMomentum - awayMomentum),
			"home_form":           homeForm,
			"away_form":           awayForm,
		},
	}, nil
}

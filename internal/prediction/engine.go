package prediction

import (
	"context"
	"fmt"
	"strings"
)

// ExpectedGoals em gols por partida, nunca negativos
type ExpectedGoals struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// Result é a saída de qualquer estratégia. Probabilidades em percentual.
type Result struct {
	HomeWinProbability float64        `json:"homeWinProbability"`
	DrawProbability    float64        `json:"drawProbability"`
	AwayWinProbability float64        `json:"awayWinProbability"`
	ExpectedGoals      ExpectedGoals  `json:"expectedGoals"`
	BothTeamsScore     float64        `json:"bothTeamsScore"`
	TotalGoals         GoalMarkets    `json:"totalGoals"`
	Confidence         float64        `json:"confidence"`
	Algorithm          string         `json:"algorithm"`
	Details            map[string]any `json:"details,omitempty"`
}

// Outcome devolve o resultado mais provável: "1" ou "2" só quando estritamente
// maior que os outros dois, senão "X".
func (r Result) Outcome() string {
	h, d, a := r.HomeWinProbability, r.DrawProbability, r.AwayWinProbability
	switch {
	case h > d && h > a:
		return ResultHome
	case a > d && a > h:
		return ResultAway
	default:
		return ResultDraw
	}
}

// Engine despacha para as estratégias. Não guarda estado mutável, então uma
// instância pode ser usada por várias goroutines ao mesmo tempo.
type Engine struct {
	src    MatchSource
	stats  *Stats
	rating RatingEstimator
	params Params
}

type Option func(*Engine)

// WithRatingEstimator troca o ELO derivado de estatísticas por outro estimador
func WithRatingEstimator(r RatingEstimator) Option {
	return func(e *Engine) { e.rating = r }
}

func NewEngine(src MatchSource, p Params, opts ...Option) *Engine {
	e := &Engine{
		src:    src,
		stats:  NewStats(src, p),
		rating: NewEloEstimator(src, p.Elo),
		params: p,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Predict roda a estratégia pedida para o confronto home x away.
// season vazio usa todo o histórico. Erros do MatchSource voltam sem alteração
// e nenhum resultado parcial é devolvido.
func (e *Engine) Predict(ctx context.Context, home, away string, algorithm Algorithm, season string) (Result, error) {
	var (
		res Result
		err error
	)
	switch algorithm {
	case AlgorithmDefault:
		res, err = e.predictDefault(ctx, home, away)
	case AlgorithmAttackDefense:
		res, err = e.predictAttackDefense(ctx, home, away, season)
	case AlgorithmPoisson:
		res, err = e.predictPoisson(ctx, home, away, season)
	case AlgorithmElo:
		res, err = e.predictElo(ctx, home, away, season)
	case AlgorithmMachineLearning:
		res, err = e.predictEnsemble(ctx, home, away, season)
	case AlgorithmRandomForest:
		res, err = e.predictRandomForest(ctx, home, away, season)
	case AlgorithmSeasonalTrends:
		res, err = e.predictSeasonalTrends(ctx, home, away)
	default:
		return Result{}, unknownAlgorithm(algorithm)
	}
	if err != nil {
		return Result{}, err
	}
	res.Algorithm = algorithm.DisplayName()
	return res, nil
}

// ValidateFixture: os dois times são obrigatórios e diferentes
func ValidateFixture(home, away string) error {
	home, away = strings.TrimSpace(home), strings.TrimSpace(away)
	if home == "" || away == "" {
		return fmt.Errorf("%w: home and away teams are required", ErrInvalidArgument)
	}
	if home == away {
		return fmt.Errorf("%w: home and away teams must be different", ErrInvalidArgument)
	}
	return nil
}

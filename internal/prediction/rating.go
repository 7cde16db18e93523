package prediction

import (
	"context"
	"math"
)

// RatingEstimator devolve uma força escalar por time. Hoje é derivada do
// agregado da temporada; uma store persistente de ratings pode substituir.
type RatingEstimator interface {
	Rating(ctx context.Context, team, season string) (int, error)
}

// EloEstimator calcula um pseudo-ELO a partir de TeamStats
type EloEstimator struct {
	src    MatchSource
	params EloParams
}

func NewEloEstimator(src MatchSource, p EloParams) *EloEstimator {
	return &EloEstimator{src: src, params: p}
}

func (e *EloEstimator) Rating(ctx context.Context, team, season string) (int, error) {
	st, err := e.src.TeamStats(ctx, team, season)
	if err != nil {
		return 0, err
	}
	return EloFromStats(st, e.params), nil
}

// EloFromStats: base + bônus por vitória − penalidade por derrota + saldo médio
// ponderado (truncado para inteiro).
func EloFromStats(st TeamStats, p EloParams) int {
	return p.Base +
		p.WinBonus*st.Wins -
		p.LossPenalty*st.Losses +
		int(math.Trunc(p.GoalDiffWeight*st.GoalDifference))
}

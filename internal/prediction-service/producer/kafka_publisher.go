package producer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/winmix-prediction-poc/internal/prediction"
	"github.com/radieske/winmix-prediction-poc/internal/shared/kafka"
	"github.com/radieske/winmix-prediction-poc/pkg/contracts/events"
)

// KafkaPublisher publica PredictionMade no tópico configurado no writer
type KafkaPublisher struct {
	writer kafka.MessageWriter
	log    *zap.Logger
}

func NewKafkaPublisher(w kafka.MessageWriter, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, log: log}
}

// PublishPredictionMade usa "home:away" como chave, assim todas as predições
// de um confronto ficam na mesma partição.
func (p *KafkaPublisher) PublishPredictionMade(ctx context.Context, e events.PredictionMade) error {
	if err := kafka.WriteJSON(ctx, p.writer, e.HomeTeam+":"+e.AwayTeam, e); err != nil {
		p.log.Error("failed to publish prediction", zap.String("prediction_id", e.PredictionID), zap.Error(err))
		return err
	}
	p.log.Debug("published prediction",
		zap.String("prediction_id", e.PredictionID),
		zap.String("algorithm", e.Algorithm))
	return nil
}

// NewPredictionMade monta o evento a partir de um Result recém calculado
func NewPredictionMade(home, away string, algorithm prediction.Algorithm, season string, res prediction.Result) events.PredictionMade {
	return events.PredictionMade{
		PredictionID: uuid.NewString(),
		HomeTeam:     home,
		AwayTeam:     away,
		Algorithm:    string(algorithm),
		Season:       season,
		Result: events.PredictionResult{
			HomeWinProbability: res.HomeWinProbability,
			DrawProbability:    res.DrawProbability,
			AwayWinProbability: res.AwayWinProbability,
			ExpectedGoals:      events.ExpectedGoals{Home: res.ExpectedGoals.Home, Away: res.ExpectedGoals.Away},
			BothTeamsScore:     res.BothTeamsScore,
			TotalGoals: events.GoalMarkets{
				Over15: res.TotalGoals.Over15,
				Over25: res.TotalGoals.Over25,
				Over35: res.TotalGoals.Over35,
			},
			Confidence:    res.Confidence,
			AlgorithmName: res.Algorithm,
			Details:       res.Details,
		},
		PredictedOutcome: res.Outcome(),
		Ts:               time.Now().UTC(),
	}
}

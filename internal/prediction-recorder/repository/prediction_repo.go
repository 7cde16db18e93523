package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/radieske/winmix-prediction-poc/pkg/contracts/events"
)

// PredictionRepo persiste as predições publicadas na tabela predictions
// DB: conexão com o banco; o driver define o estilo dos placeholders
type PredictionRepo struct {
	DB *sqlx.DB
}

func NewPredictionRepo(conn *sql.DB, driver string) *PredictionRepo {
	return &PredictionRepo{DB: sqlx.NewDb(conn, driver)}
}

// InsertPrediction grava o evento. Reentregas do Kafka (mesmo prediction_id)
// são ignoradas via ON CONFLICT.
func (r *PredictionRepo) InsertPrediction(ctx context.Context, e events.PredictionMade) error {
	const q = `
		INSERT INTO predictions
		  (prediction_id, home_team, away_team, algorithm, season,
		   home_win_probability, draw_probability, away_win_probability,
		   expected_goals_home, expected_goals_away, both_teams_score,
		   over_15_goals, over_25_goals, over_35_goals,
		   confidence, predicted_outcome, prediction_data, created_at)
		VALUES
		  (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (prediction_id) DO NOTHING
	`
	data, err := json.Marshal(e.Result)
	if err != nil {
		return fmt.Errorf("marshal prediction data: %w", err)
	}

	res := e.Result
	_, err = r.DB.ExecContext(ctx, r.DB.Rebind(q),
		e.PredictionID, e.HomeTeam, e.AwayTeam, e.Algorithm, e.Season,
		res.HomeWinProbability, res.DrawProbability, res.AwayWinProbability,
		res.ExpectedGoals.Home, res.ExpectedGoals.Away, res.BothTeamsScore,
		res.TotalGoals.Over15, res.TotalGoals.Over25, res.TotalGoals.Over35,
		res.Confidence, e.PredictedOutcome, string(data), e.Ts.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert prediction %s: %w", e.PredictionID, err)
	}
	return nil
}

package events

import "time"

// Evento publicado no tópico "prediction_made" a cada predição calculada
// (cache hits não geram evento).
type PredictionMade struct {
	PredictionID     string           `json:"predictionId"`
	HomeTeam         string           `json:"homeTeam"`
	AwayTeam         string           `json:"awayTeam"`
	Algorithm        string           `json:"algorithm"` // identificador, ex.: "poisson"
	Season           string           `json:"season,omitempty"`
	Result           PredictionResult `json:"result"`
	PredictedOutcome string           `json:"predictedOutcome"` // "1" | "X" | "2"
	Ts               time.Time        `json:"ts"`
}

type ExpectedGoals struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

type GoalMarkets struct {
	Over15 float64 `json:"over15"`
	Over25 float64 `json:"over25"`
	Over35 float64 `json:"over35"`
}

// PredictionResult espelha o JSON devolvido pela API
type PredictionResult struct {
	HomeWinProbability float64        `json:"homeWinProbability"`
	DrawProbability    float64        `json:"drawProbability"`
	AwayWinProbability float64        `json:"awayWinProbability"`
	ExpectedGoals      ExpectedGoals  `json:"expectedGoals"`
	BothTeamsScore     float64        `json:"bothTeamsScore"`
	TotalGoals         GoalMarkets    `json:"totalGoals"`
	Confidence         float64        `json:"confidence"`
	AlgorithmName      string         `json:"algorithm"`
	Details            map[string]any `json:"details,omitempty"`
}

package dto

import "github.com/radieske/winmix-prediction-poc/internal/prediction"

// Team representa um time cadastrado (tabela teams)
type Team struct {
	ID     string  `json:"id" db:"team_key"` // ex.: "manchester-city"
	Name   string  `json:"name" db:"name"`
	NameHu string  `json:"nameHu" db:"name_hu"`
	Logo   *string `json:"logo" db:"logo_url"`
}

// TeamDetail é a resposta de /teams/{team}
type TeamDetail struct {
	Team             string               `json:"team"`
	Stats            prediction.TeamStats `json:"stats"`
	RecentMatches    []prediction.Match   `json:"recent_matches"`
	AvailableSeasons []string             `json:"available_seasons"`
}

// RecentResult é uma partida jogada resumida para /statistics
type RecentResult struct {
	HomeTeam  string `json:"home_team" db:"home_team"`
	AwayTeam  string `json:"away_team" db:"away_team"`
	HomeScore int    `json:"home_score" db:"home_score"`
	AwayScore int    `json:"away_score" db:"away_score"`
	Date      string `json:"date" db:"date"`
}

// TopScorer: média de gols por partida, combinando mando e visita
type TopScorer struct {
	Team     string  `json:"team" db:"team"`
	AvgGoals float64 `json:"avg_goals" db:"avg_goals"`
}

type Statistics struct {
	TotalMatches        int            `json:"total_matches"`
	TotalPredictions    int            `json:"total_predictions"`
	RecentMatches       []RecentResult `json:"recent_matches"`
	TopScorers          []TopScorer    `json:"top_scorers"`
	AlgorithmsAvailable int            `json:"algorithms_available"`
	LastUpdated         string         `json:"last_updated"`
}

// MatchFilter filtra /matches; campos vazios não filtram
type MatchFilter struct {
	Limit  int
	Offset int
	Season string
	Team   string
}

// PageMeta: Count é o número de itens desta página
type PageMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// PredictionMeta acompanha a resposta de /predictions
type PredictionMeta struct {
	Algorithm string    `json:"algorithm"`
	Teams     [2]string `json:"teams"`
	Season    *string   `json:"season"`
	Cached    bool      `json:"cached"`
}

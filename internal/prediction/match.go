package prediction

import "fmt"

// Códigos de resultado no padrão 1X2
const (
	ResultHome    = "1"
	ResultDraw    = "X"
	ResultAway    = "2"
	ResultUnknown = "N/A"
)

// Match é um fato histórico imutável: uma partida jogada ou ainda não jogada.
// HomeScore e AwayScore são ambos nil (não jogada) ou ambos preenchidos.
type Match struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"` // YYYY-MM-DD
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	HomeScore   *int   `json:"home_score"`
	AwayScore   *int   `json:"away_score"`
	Season      string `json:"season"`
	Competition string `json:"competition"`
}

// Played indica se a partida já tem placar
func (m Match) Played() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// Result retorna "1", "X", "2" ou "N/A" para partidas sem placar
func (m Match) Result() string {
	if !m.Played() {
		return ResultUnknown
	}
	switch {
	case *m.HomeScore > *m.AwayScore:
		return ResultHome
	case *m.HomeScore < *m.AwayScore:
		return ResultAway
	default:
		return ResultDraw
	}
}

func (m Match) TotalGoals() (int, bool) {
	if !m.Played() {
		return 0, false
	}
	return *m.HomeScore + *m.AwayScore, true
}

func (m Match) BothTeamsScored() (bool, bool) {
	if !m.Played() {
		return false, false
	}
	return *m.HomeScore > 0 && *m.AwayScore > 0, true
}

// GoalDifference é a diferença absoluta de gols
func (m Match) GoalDifference() (int, bool) {
	if !m.Played() {
		return 0, false
	}
	d := *m.HomeScore - *m.AwayScore
	if d < 0 {
		d = -d
	}
	return d, true
}

// IsHighScoring: 4 gols ou mais
func (m Match) IsHighScoring() (bool, bool) {
	total, ok := m.TotalGoals()
	if !ok {
		return false, false
	}
	return total >= 4, true
}

// IsOver indica se o total de gols passou da linha (ex.: 2.5)
func (m Match) IsOver(line float64) (bool, bool) {
	total, ok := m.TotalGoals()
	if !ok {
		return false, false
	}
	return float64(total) > line, true
}

// scoresFor devolve (gols do time, gols do adversário) na perspectiva de team.
// Só deve ser chamada em partidas jogadas.
func (m Match) scoresFor(team string) (int, int) {
	if m.HomeTeam == team {
		return *m.HomeScore, *m.AwayScore
	}
	return *m.AwayScore, *m.HomeScore
}

func (m Match) String() string {
	if !m.Played() {
		return fmt.Sprintf("%s vs %s", m.HomeTeam, m.AwayTeam)
	}
	return fmt.Sprintf("%s vs %s (%d-%d)", m.HomeTeam, m.AwayTeam, *m.HomeScore, *m.AwayScore)
}

// TeamStats é o agregado de um time numa temporada (ou em todo o histórico)
type TeamStats struct {
	TotalMatches    int     `json:"total_matches"`
	Wins            int     `json:"wins"`
	Draws           int     `json:"draws"`
	Losses          int     `json:"losses"`
	WinRate         float64 `json:"win_rate"` // percentual
	AvgGoalsFor     float64 `json:"avg_goals_for"`
	AvgGoalsAgainst float64 `json:"avg_goals_against"`
	GoalDifference  float64 `json:"goal_difference"` // média de gols pró − média contra
}

// TeamForm resume as últimas N partidas de um time
type TeamForm struct {
	TotalMatches    int     `json:"total_matches"`
	Wins            int     `json:"wins"`
	Draws           int     `json:"draws"`
	Losses          int     `json:"losses"`
	Points          int     `json:"points"`
	FormIndex       float64 `json:"form_index"` // pontos ganhos / pontos possíveis
	AvgGoalsFor     float64 `json:"avg_goals_for"`
	AvgGoalsAgainst float64 `json:"avg_goals_against"`
}

// HeadToHead resume os confrontos diretos, sempre orientados ao mandante consultado
type HeadToHead struct {
	TotalMatches   int     `json:"total_matches"`
	HomeWins       int     `json:"home_wins"`
	Draws          int     `json:"draws"`
	AwayWins       int     `json:"away_wins"`
	AvgGoalsHome   float64 `json:"avg_goals_home"`
	AvgGoalsAway   float64 `json:"avg_goals_away"`
	BTTSPercentage float64 `json:"btts_percentage"`
}

package repo

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/jmoiron/sqlx"

	"github.com/radieske/winmix-prediction-poc/internal/prediction"
)

var ErrNotFound = errors.New("not found")

// MatchRepo lê e grava partidas. Implementa prediction.MatchSource.
// As queries usam "?" e o sqlx reescreve para $n quando o driver é postgres.
type MatchRepo struct {
	DB *sqlx.DB
}

// NewMatchRepo: driver é o mesmo nome usado no sql.Open ("postgres" | "sqlite")
func NewMatchRepo(conn *sql.DB, driver string) *MatchRepo {
	return &MatchRepo{DB: sqlx.NewDb(conn, driver)}
}

var _ prediction.MatchSource = (*MatchRepo)(nil)

const matchColumns = `id, date, home_team, away_team, home_score, away_score, season, competition`

// matchRow tem os mesmos campos de prediction.Match, com tags do banco
type matchRow struct {
	ID          int64  `db:"id"`
	Date        string `db:"date"`
	HomeTeam    string `db:"home_team"`
	AwayTeam    string `db:"away_team"`
	HomeScore   *int   `db:"home_score"`
	AwayScore   *int   `db:"away_score"`
	Season      string `db:"season"`
	Competition string `db:"competition"`
}

func (m matchRow) match() prediction.Match {
	out := prediction.Match(m)
	// placar parcial conta como partida não jogada
	if out.HomeScore == nil || out.AwayScore == nil {
		out.HomeScore, out.AwayScore = nil, nil
	}
	return out
}

func (r *MatchRepo) queryMatches(ctx context.Context, q string, args ...any) ([]prediction.Match, error) {
	var rows []matchRow
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make([]prediction.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.match())
	}
	return out, nil
}

// MatchesBetween busca confrontos nos dois mandos, mais recentes primeiro
func (r *MatchRepo) MatchesBetween(ctx context.Context, teamA, teamB string, limit int) ([]prediction.Match, error) {
	const q = `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE (home_team = ? AND away_team = ?)
		   OR (home_team = ? AND away_team = ?)
		ORDER BY date DESC, id DESC
		LIMIT ?;
	`
	return r.queryMatches(ctx, q, teamA, teamB, teamB, teamA, limit)
}

// RecentMatches inclui partidas ainda sem placar; quem consome descarta
func (r *MatchRepo) RecentMatches(ctx context.Context, team string, limit int, season string) ([]prediction.Match, error) {
	q := `SELECT ` + matchColumns + ` FROM matches WHERE (home_team = ? OR away_team = ?)`
	args := []any{team, team}
	if season != "" {
		q += ` AND season = ?`
		args = append(args, season)
	}
	q += ` ORDER BY date DESC, id DESC LIMIT ?`
	args = append(args, limit)
	return r.queryMatches(ctx, q, args...)
}

// TeamStats agrega só partidas jogadas. Médias são arredondadas aqui porque
// o ROUND do postgres não aceita double precision.
func (r *MatchRepo) TeamStats(ctx context.Context, team, season string) (prediction.TeamStats, error) {
	q := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE
				WHEN home_team = ? AND home_score > away_score THEN 1
				WHEN away_team = ? AND away_score > home_score THEN 1
				ELSE 0
			END), 0),
			COALESCE(SUM(CASE WHEN home_score = away_score THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN home_team = ? THEN home_score ELSE away_score END), 0),
			COALESCE(SUM(CASE WHEN home_team = ? THEN away_score ELSE home_score END), 0)
		FROM matches
		WHERE (home_team = ? OR away_team = ?)
		  AND home_score IS NOT NULL
		  AND away_score IS NOT NULL`
	args := []any{team, team, team, team, team, team}
	if season != "" {
		q += ` AND season = ?`
		args = append(args, season)
	}

	var st prediction.TeamStats
	var goalsFor, goalsAgainst int64
	err := r.DB.QueryRowContext(ctx, r.DB.Rebind(q), args...).Scan(&st.TotalMatches, &st.Wins, &st.Draws, &goalsFor, &goalsAgainst)
	if err != nil {
		return prediction.TeamStats{}, err
	}
	st.Losses = st.TotalMatches - st.Wins - st.Draws
	if st.TotalMatches == 0 {
		return st, nil
	}

	n := float64(st.TotalMatches)
	avgFor := float64(goalsFor) / n
	avgAgainst := float64(goalsAgainst) / n
	st.WinRate = round2(float64(st.Wins) / n * 100)
	st.AvgGoalsFor = round2(avgFor)
	st.AvgGoalsAgainst = round2(avgAgainst)
	st.GoalDifference = round2(avgFor - avgAgainst)
	return st, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

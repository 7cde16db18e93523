package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/radieske/winmix-prediction-poc/internal/prediction"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/dto"
)

// ListMatches pagina as partidas, com filtro opcional de temporada e time
func (r *MatchRepo) ListMatches(ctx context.Context, f dto.MatchFilter) ([]prediction.Match, error) {
	q := `SELECT ` + matchColumns + ` FROM matches WHERE 1 = 1`
	var args []any
	if f.Season != "" {
		q += ` AND season = ?`
		args = append(args, f.Season)
	}
	if f.Team != "" {
		q += ` AND (home_team = ? OR away_team = ?)`
		args = append(args, f.Team, f.Team)
	}
	q += ` ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)
	return r.queryMatches(ctx, q, args...)
}

// GetMatch busca uma partida pelo id; ErrNotFound quando não existe
func (r *MatchRepo) GetMatch(ctx context.Context, id int64) (prediction.Match, error) {
	var row matchRow
	err := r.DB.GetContext(ctx, &row, r.DB.Rebind(`SELECT `+matchColumns+` FROM matches WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return prediction.Match{}, ErrNotFound
	}
	if err != nil {
		return prediction.Match{}, err
	}
	return row.match(), nil
}

func (r *MatchRepo) CountMatches(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM matches`)
}

func (r *MatchRepo) CountPredictions(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM predictions`)
}

func (r *MatchRepo) count(ctx context.Context, q string) (int, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, q); err != nil {
		return 0, err
	}
	return n, nil
}

// Seasons lista as temporadas presentes, mais recente primeiro
func (r *MatchRepo) Seasons(ctx context.Context) ([]string, error) {
	out := []string{}
	if err := r.DB.SelectContext(ctx, &out, `SELECT DISTINCT season FROM matches ORDER BY season DESC`); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTeams devolve os times ativos ordenados pelo nome de exibição
func (r *MatchRepo) ListTeams(ctx context.Context) ([]dto.Team, error) {
	const q = `
		SELECT team_key, name, name_hu, logo_url
		FROM teams
		WHERE active
		ORDER BY name_hu;
	`
	out := []dto.Team{}
	if err := r.DB.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// RecentResults lista as últimas partidas com placar
func (r *MatchRepo) RecentResults(ctx context.Context, limit int) ([]dto.RecentResult, error) {
	const q = `
		SELECT home_team, away_team, home_score, away_score, date
		FROM matches
		WHERE home_score IS NOT NULL AND away_score IS NOT NULL
		ORDER BY date DESC, id DESC
		LIMIT ?;
	`
	out := []dto.RecentResult{}
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(q), limit); err != nil {
		return nil, err
	}
	return out, nil
}

// TopScorers: média entre a média de gols em casa e a média fora
func (r *MatchRepo) TopScorers(ctx context.Context, limit int) ([]dto.TopScorer, error) {
	const q = `
		SELECT team, AVG(goals_for) AS avg_goals
		FROM (
			SELECT home_team AS team, AVG(home_score * 1.0) AS goals_for
			FROM matches WHERE home_score IS NOT NULL GROUP BY home_team
			UNION ALL
			SELECT away_team AS team, AVG(away_score * 1.0) AS goals_for
			FROM matches WHERE away_score IS NOT NULL GROUP BY away_team
		) t
		GROUP BY team
		ORDER BY avg_goals DESC, team
		LIMIT ?;
	`
	out := []dto.TopScorer{}
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(q), limit); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].AvgGoals = round2(out[i].AvgGoals)
	}
	return out, nil
}

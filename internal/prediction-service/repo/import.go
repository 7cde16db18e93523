package repo

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/radieske/winmix-prediction-poc/internal/prediction"
	"github.com/radieske/winmix-prediction-poc/internal/shared/db"
)

const defaultCompetition = "Premier League"

// DecodeMatches aceita {"matches": [...]} ou um array puro
func DecodeMatches(r io.Reader) ([]prediction.Match, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read matches: %w", err)
	}
	raw = bytes.TrimSpace(raw)

	var matches []prediction.Match
	if len(raw) > 0 && raw[0] == '[' {
		err = json.Unmarshal(raw, &matches)
	} else {
		var wrapper struct {
			Matches []prediction.Match `json:"matches"`
		}
		err = json.Unmarshal(raw, &wrapper)
		matches = wrapper.Matches
	}
	if err != nil {
		return nil, fmt.Errorf("invalid JSON data: %w", err)
	}
	return matches, nil
}

func validateMatch(m *prediction.Match) error {
	m.HomeTeam = strings.TrimSpace(m.HomeTeam)
	m.AwayTeam = strings.TrimSpace(m.AwayTeam)
	if m.HomeTeam == "" || m.AwayTeam == "" {
		return fmt.Errorf("%w: home_team and away_team are required", prediction.ErrInvalidArgument)
	}
	if m.HomeTeam == m.AwayTeam {
		return fmt.Errorf("%w: home_team and away_team must be different", prediction.ErrInvalidArgument)
	}
	if _, err := time.Parse("2006-01-02", m.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", prediction.ErrInvalidArgument, m.Date)
	}
	if (m.HomeScore == nil) != (m.AwayScore == nil) {
		return fmt.Errorf("%w: home_score and away_score must be both set or both null", prediction.ErrInvalidArgument)
	}
	if m.Played() && (*m.HomeScore < 0 || *m.AwayScore < 0) {
		return fmt.Errorf("%w: scores must be non-negative", prediction.ErrInvalidArgument)
	}
	if strings.TrimSpace(m.Season) == "" {
		return fmt.Errorf("%w: season is required", prediction.ErrInvalidArgument)
	}
	if m.Competition == "" {
		m.Competition = defaultCompetition
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InsertMatch grava uma partida e devolve o id gerado
func (r *MatchRepo) InsertMatch(ctx context.Context, m prediction.Match) (int64, error) {
	if err := validateMatch(&m); err != nil {
		return 0, err
	}
	return r.insertMatch(ctx, r.DB, m)
}

func (r *MatchRepo) insertMatch(ctx context.Context, ex execer, m prediction.Match) (int64, error) {
	q := `
		INSERT INTO matches (date, home_team, away_team, home_score, away_score, season, competition)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	args := []any{m.Date, m.HomeTeam, m.AwayTeam, nullableScore(m.HomeScore), nullableScore(m.AwayScore), m.Season, m.Competition}

	// lib/pq não implementa LastInsertId
	if r.DB.DriverName() == db.DriverPostgres {
		var id int64
		if err := ex.QueryRowContext(ctx, r.DB.Rebind(q+` RETURNING id`), args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert match: %w", err)
		}
		return id, nil
	}

	res, err := ex.ExecContext(ctx, r.DB.Rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}
	return res.LastInsertId()
}

func nullableScore(s *int) any {
	if s == nil {
		return nil
	}
	return int64(*s)
}

// ValidateMatches normaliza e valida o lote; o erro indica o índice da partida
func ValidateMatches(matches []prediction.Match) error {
	for i := range matches {
		if err := validateMatch(&matches[i]); err != nil {
			return fmt.Errorf("match %d: %w", i, err)
		}
	}
	return nil
}

// ImportMatches grava em uma transação, ignorando partidas já existentes
// (mesma data, mandante e visitante). Devolve quantas foram inseridas.
func (r *MatchRepo) ImportMatches(ctx context.Context, matches []prediction.Match) (int, error) {
	if err := ValidateMatches(matches); err != nil {
		return 0, err
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exists := r.DB.Rebind(`SELECT COUNT(*) FROM matches WHERE date = ? AND home_team = ? AND away_team = ?`)
	imported := 0
	for _, m := range matches {
		var n int
		if err := tx.QueryRowContext(ctx, exists, m.Date, m.HomeTeam, m.AwayTeam).Scan(&n); err != nil {
			return 0, fmt.Errorf("check existing match: %w", err)
		}
		if n > 0 {
			continue
		}
		if _, err := r.insertMatch(ctx, tx, m); err != nil {
			return 0, err
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return imported, nil
}

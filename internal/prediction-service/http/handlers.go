package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/winmix-prediction-poc/internal/prediction"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/dto"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/repo"
)

const (
	defaultMatchLimit = 100
	maxMatchLimit     = 500
	teamRecentMatches = 10
	statsRecentLimit  = 10
	statsTopScorers   = 5
)

// health verifica banco e redis
func (a *API) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	checks := make(map[string]string, len(a.Checks))
	for name, check := range a.Checks {
		if err := check(ctx); err != nil {
			checks[name] = "error: " + err.Error()
			status = "unhealthy"
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{
		"success":   status == "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    status,
		"version":   a.Version,
		"checks":    checks,
	}
	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	if err := writeJSON(w, code, body); err != nil {
		a.Log.Error("encode response failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// predict: GET /predictions?home=&away=&algorithm=&season=
func (a *API) predict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	home := strings.TrimSpace(q.Get("home"))
	away := strings.TrimSpace(q.Get("away"))
	season := strings.TrimSpace(q.Get("season"))

	alg, err := prediction.ParseAlgorithm(q.Get("algorithm"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	res, cached, err := a.Predictor.Predict(r.Context(), home, away, string(alg), season)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	meta := dto.PredictionMeta{
		Algorithm: string(alg),
		Teams:     [2]string{home, away},
		Cached:    cached,
	}
	if season != "" {
		meta.Season = &season
	}
	a.writeSuccess(w, r, map[string]any{
		"data": []prediction.Result{res},
		"meta": meta,
	})
}

func (a *API) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := a.Catalog.ListTeams(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeSuccess(w, r, map[string]any{"data": teams})
}

// teamDetails: estatísticas, últimas partidas e temporadas disponíveis
func (a *API) teamDetails(w http.ResponseWriter, r *http.Request) {
	team := strings.TrimSpace(chi.URLParam(r, "team"))
	season := strings.TrimSpace(r.URL.Query().Get("season"))
	ctx := r.Context()

	stats, err := a.Catalog.TeamStats(ctx, team, season)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	recent, err := a.Catalog.RecentMatches(ctx, team, teamRecentMatches, season)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if stats.TotalMatches == 0 && len(recent) == 0 {
		a.writeError(w, r, fmt.Errorf("team %q: %w", team, repo.ErrNotFound))
		return
	}
	seasons, err := a.Catalog.Seasons(ctx)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if recent == nil {
		recent = []prediction.Match{}
	}
	a.writeSuccess(w, r, map[string]any{"data": dto.TeamDetail{
		Team:             team,
		Stats:            stats,
		RecentMatches:    recent,
		AvailableSeasons: seasons,
	}})
}

func (a *API) statistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		out dto.Statistics
		err error
	)
	if out.TotalMatches, err = a.Catalog.CountMatches(ctx); err != nil {
		a.writeError(w, r, err)
		return
	}
	if out.TotalPredictions, err = a.Catalog.CountPredictions(ctx); err != nil {
		a.writeError(w, r, err)
		return
	}
	if out.RecentMatches, err = a.Catalog.RecentResults(ctx, statsRecentLimit); err != nil {
		a.writeError(w, r, err)
		return
	}
	if out.TopScorers, err = a.Catalog.TopScorers(ctx, statsTopScorers); err != nil {
		a.writeError(w, r, err)
		return
	}
	out.AlgorithmsAvailable = len(prediction.Algorithms())
	out.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	a.writeSuccess(w, r, map[string]any{"data": out})
}

// listMatches: GET /matches?limit=100&offset=0&season=&team= (limit máx. 500)
func (a *API) listMatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), defaultMatchLimit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if limit < 1 {
		limit = defaultMatchLimit
	}
	if limit > maxMatchLimit {
		limit = maxMatchLimit
	}
	if offset < 0 {
		offset = 0
	}

	f := dto.MatchFilter{
		Limit:  limit,
		Offset: offset,
		Season: strings.TrimSpace(q.Get("season")),
		Team:   strings.TrimSpace(q.Get("team")),
	}
	matches, err := a.Catalog.ListMatches(r.Context(), f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []prediction.Match{}
	}
	a.writeSuccess(w, r, map[string]any{
		"data": matches,
		"meta": dto.PageMeta{Limit: limit, Offset: offset, Count: len(matches)},
	})
}

// matchDetails: GET /matches/{id}
func (a *API) matchDetails(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		a.writeError(w, r, fmt.Errorf("%w: invalid match id %q", prediction.ErrInvalidArgument, raw))
		return
	}
	m, err := a.Catalog.GetMatch(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeSuccess(w, r, map[string]any{"data": m})
}

func (a *API) algorithms(w http.ResponseWriter, r *http.Request) {
	a.writeSuccess(w, r, map[string]any{"data": prediction.Algorithms()})
}

func intParam(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", prediction.ErrInvalidArgument, raw)
	}
	return n, nil
}

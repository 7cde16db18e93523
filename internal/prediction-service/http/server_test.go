package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/winmix-prediction-poc/internal/prediction"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/dto"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/repo"
	"github.com/radieske/winmix-prediction-poc/internal/shared/metrics"
)

type fakePredictor struct {
	calls  []string
	err    error
	result *prediction.Result
}

func (f *fakePredictor) Predict(_ context.Context, home, away, algorithm, season string) (prediction.Result, bool, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s|%s|%s|%s", home, away, algorithm, season))
	if f.err != nil {
		return prediction.Result{}, false, f.err
	}
	if err := prediction.ValidateFixture(home, away); err != nil {
		return prediction.Result{}, false, err
	}
	if f.result != nil {
		return *f.result, false, nil
	}
	return prediction.Result{
		HomeWinProbability: 50,
		DrawProbability:    30,
		AwayWinProbability: 20,
		Confidence:         0.8,
		Algorithm:          prediction.Algorithm(algorithm).DisplayName(),
	}, season == "cached", nil
}

type fakeCatalog struct {
	err     error
	filters []dto.MatchFilter
}

func score(n int) *int { return &n }

func (c *fakeCatalog) ListTeams(context.Context) ([]dto.Team, error) {
	return []dto.Team{{ID: "arsenal", Name: "Arsenal", NameHu: "Arsenal"}}, c.err
}

func (c *fakeCatalog) TeamStats(_ context.Context, team, _ string) (prediction.TeamStats, error) {
	if c.err != nil {
		return prediction.TeamStats{}, c.err
	}
	if team != "arsenal" {
		return prediction.TeamStats{}, nil
	}
	return prediction.TeamStats{TotalMatches: 2, Wins: 1, Draws: 1, WinRate: 50, AvgGoalsFor: 1.5, AvgGoalsAgainst: 0.5, GoalDifference: 1}, nil
}

func (c *fakeCatalog) RecentMatches(_ context.Context, team string, _ int, _ string) ([]prediction.Match, error) {
	if team != "arsenal" {
		return nil, nil
	}
	return []prediction.Match{{ID: 1, Date: "2024-01-10", HomeTeam: "arsenal", AwayTeam: "chelsea", HomeScore: score(2), AwayScore: score(0), Season: "2023-24"}}, nil
}

func (c *fakeCatalog) Seasons(context.Context) ([]string, error) {
	return []string{"2023-24"}, nil
}

func (c *fakeCatalog) CountMatches(context.Context) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	return 380, nil
}

func (c *fakeCatalog) CountPredictions(context.Context) (int, error) { return 12, nil }

func (c *fakeCatalog) RecentResults(context.Context, int) ([]dto.RecentResult, error) {
	return []dto.RecentResult{{HomeTeam: "arsenal", AwayTeam: "chelsea", HomeScore: 2, AwayScore: 0, Date: "2024-01-10"}}, nil
}

func (c *fakeCatalog) TopScorers(context.Context, int) ([]dto.TopScorer, error) {
	return []dto.TopScorer{{Team: "arsenal", AvgGoals: 2.1}}, nil
}

func (c *fakeCatalog) ListMatches(_ context.Context, f dto.MatchFilter) ([]prediction.Match, error) {
	c.filters = append(c.filters, f)
	return nil, c.err
}

func (c *fakeCatalog) GetMatch(_ context.Context, id int64) (prediction.Match, error) {
	if c.err != nil {
		return prediction.Match{}, c.err
	}
	if id != 1 {
		return prediction.Match{}, repo.ErrNotFound
	}
	return prediction.Match{ID: 1, Date: "2024-01-10", HomeTeam: "arsenal", AwayTeam: "chelsea", HomeScore: score(2), AwayScore: score(0), Season: "2023-24"}, nil
}

func newTestAPI() (*API, *fakePredictor, *fakeCatalog) {
	p := &fakePredictor{}
	c := &fakeCatalog{}
	return &API{
		Log:         zap.NewNop(),
		Predictor:   p,
		Catalog:     c,
		Version:     "test",
		CORSOrigins: []string{"*"},
		Checks: metrics.Checks{
			"db": func(context.Context) error { return nil },
		},
	}, p, c
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func TestPredictions(t *testing.T) {
	api, p, _ := newTestAPI()
	rec, body := do(t, api.Router(), http.MethodGet, "/predictions?home=arsenal&away=chelsea&algorithm=poisson&season=2023-24")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["timestamp"])

	data := body["data"].([]any)
	require.Len(t, data, 1)
	first := data[0].(map[string]any)
	assert.Equal(t, 50.0, first["homeWinProbability"])
	assert.Equal(t, "Poisson Distribution", first["algorithm"])

	meta := body["meta"].(map[string]any)
	assert.Equal(t, "poisson", meta["algorithm"])
	assert.Equal(t, []any{"arsenal", "chelsea"}, meta["teams"])
	assert.Equal(t, "2023-24", meta["season"])
	assert.Equal(t, false, meta["cached"])
	assert.Equal(t, []string{"arsenal|chelsea|poisson|2023-24"}, p.calls)
}

func TestPredictionsDefaults(t *testing.T) {
	api, p, _ := newTestAPI()
	rec, body := do(t, api.Router(), http.MethodGet, "/predictions?home=arsenal&away=chelsea")

	require.Equal(t, http.StatusOK, rec.Code)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "default", meta["algorithm"])
	assert.Nil(t, meta["season"])
	assert.Equal(t, []string{"arsenal|chelsea|default|"}, p.calls)
}

func TestPredictionsBadRequests(t *testing.T) {
	cases := []struct {
		name, target, msg string
	}{
		{"missing teams", "/predictions?home=arsenal", "home and away teams are required"},
		{"same team", "/predictions?home=arsenal&away=arsenal", "home and away teams must be different"},
		{"unknown algorithm", "/predictions?home=arsenal&away=chelsea&algorithm=neural", "unknown algorithm: neural"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api, _, _ := newTestAPI()
			rec, body := do(t, api.Router(), http.MethodGet, tc.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.msg, body["error"])
		})
	}
}

func TestInternalErrorsHideMessageUnlessDebug(t *testing.T) {
	api, p, _ := newTestAPI()
	p.err = errors.New("connection refused")

	rec, body := do(t, api.Router(), http.MethodGet, "/predictions?home=arsenal&away=chelsea")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, body, "message")

	api.Debug = true
	_, body = do(t, api.Router(), http.MethodGet, "/predictions?home=arsenal&away=chelsea")
	assert.Equal(t, "connection refused", body["message"])
}

func TestPredictionsUnencodableResultIs500(t *testing.T) {
	api, p, _ := newTestAPI()
	p.result = &prediction.Result{ExpectedGoals: prediction.ExpectedGoals{Home: math.NaN(), Away: 1}}

	rec, body := do(t, api.Router(), http.MethodGet, "/predictions?home=arsenal&away=chelsea")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "internal server error", body["error"])
}

func TestTeams(t *testing.T) {
	api, _, _ := newTestAPI()
	rec, body := do(t, api.Router(), http.MethodGet, "/teams")
	require.Equal(t, http.StatusOK, rec.Code)

	teams := body["data"].([]any)
	require.Len(t, teams, 1)
	assert.Equal(t, "arsenal", teams[0].(map[string]any)["id"])
}

func TestTeamDetails(t *testing.T) {
	api, _, _ := newTestAPI()
	rec, body := do(t, api.Router(), http.MethodGet, "/teams/arsenal")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, "arsenal", data["team"])
	assert.Equal(t, 2.0, data["stats"].(map[string]any)["total_matches"])
	assert.Len(t, data["recent_matches"], 1)
	assert.Equal(t, []any{"2023-24"}, data["available_seasons"])

	rec, body = do(t, api.Router(), http.MethodGet, "/teams/atlantis")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", body["error"])
}

func TestMatchDetails(t *testing.T) {
	api, _, _ := newTestAPI()
	h := api.Router()

	rec, body := do(t, h, http.MethodGet, "/matches/1")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "arsenal", data["home_team"])
	assert.Equal(t, 2.0, data["home_score"])

	rec, _ = do(t, h, http.MethodGet, "/matches/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, id := range []string{"abc", "0", "-3"} {
		rec, body = do(t, h, http.MethodGet, "/matches/"+id)
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
		assert.Contains(t, body["error"], "invalid match id", id)
	}
}

func TestStatistics(t *testing.T) {
	api, _, _ := newTestAPI()
	rec, body := do(t, api.Router(), http.MethodGet, "/statistics")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, 380.0, data["total_matches"])
	assert.Equal(t, 12.0, data["total_predictions"])
	assert.Equal(t, 7.0, data["algorithms_available"])
	assert.Len(t, data["recent_matches"], 1)
	assert.Len(t, data["top_scorers"], 1)
	assert.NotEmpty(t, data["last_updated"])
}

func TestStatisticsStoreError(t *testing.T) {
	api, _, c := newTestAPI()
	c.err = errors.New("db down")
	rec, _ := do(t, api.Router(), http.MethodGet, "/statistics")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMatchesPaging(t *testing.T) {
	api, _, c := newTestAPI()
	h := api.Router()

	rec, body := do(t, h, http.MethodGet, "/matches")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["data"])

	do(t, h, http.MethodGet, "/matches?limit=9999&offset=-3&season=2023-24&team=arsenal")
	require.Len(t, c.filters, 2)
	assert.Equal(t, dto.MatchFilter{Limit: 100}, c.filters[0])
	assert.Equal(t, dto.MatchFilter{Limit: 500, Offset: 0, Season: "2023-24", Team: "arsenal"}, c.filters[1])

	rec, body = do(t, h, http.MethodGet, "/matches?limit=ten")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `"ten" is not a number`, body["error"])
}

func TestAlgorithms(t *testing.T) {
	api, _, _ := newTestAPI()
	rec, body := do(t, api.Router(), http.MethodGet, "/algorithms")
	require.Equal(t, http.StatusOK, rec.Code)

	algs := body["data"].([]any)
	require.Len(t, algs, 7)
	first := algs[0].(map[string]any)
	assert.Equal(t, "default", first["id"])
	assert.Equal(t, "Default (Form + H2H)", first["name"])
}

func TestHealth(t *testing.T) {
	api, _, _ := newTestAPI()
	rec, body := do(t, api.Router(), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, map[string]any{"db": "ok"}, body["checks"])

	api.Checks["redis"] = func(context.Context) error { return errors.New("timeout") }
	rec, body = do(t, api.Router(), http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "error: timeout", body["checks"].(map[string]any)["redis"])
}

func TestNotFoundRoute(t *testing.T) {
	api, _, _ := newTestAPI()
	rec, body := do(t, api.Router(), http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestCORS(t *testing.T) {
	api, _, _ := newTestAPI()

	preflight := httptest.NewRequest(http.MethodOptions, "/predictions", nil)
	preflight.Header.Set("Origin", "https://any.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, preflight)
	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))

	api.CORSOrigins = []string{"https://winmix.example"}
	h := api.Router()

	req := httptest.NewRequest(http.MethodGet, "/algorithms", nil)
	req.Header.Set("Origin", "https://winmix.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://winmix.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/algorithms", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	api, _, _ := newTestAPI()
	api.Limiter = NewRateLimiter(2, time.Hour)
	h := api.Router()

	for i, remaining := range []string{"1", "0"} {
		rec, _ := do(t, h, http.MethodGet, "/algorithms")
		require.Equal(t, http.StatusOK, rec.Code, i)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, remaining, rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec, body := do(t, h, http.MethodGet, "/algorithms")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", body["error"])
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retry, 0)
	assert.LessOrEqual(t, retry, 1800)

	// outro IP tem o próprio balde
	req := httptest.NewRequest(http.MethodGet, "/algorithms", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	l := NewRateLimiter(10, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.limiter("192.0.2.1", now)
	l.limiter("192.0.2.2", now.Add(50*time.Second))

	l.evictIdle(now.Add(90 * time.Second))
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "192.0.2.2")
}

func TestObserveReportsRoutePattern(t *testing.T) {
	api, _, _ := newTestAPI()
	var routes []string
	var statuses []int
	api.OnRequest = func(route string, status int, _ time.Duration) {
		routes = append(routes, route)
		statuses = append(statuses, status)
	}
	h := api.Router()

	do(t, h, http.MethodGet, "/teams/arsenal")
	do(t, h, http.MethodGet, "/predictions?home=a")
	assert.Equal(t, []string{"/teams/{team}", "/predictions"}, routes)
	assert.Equal(t, []int{http.StatusOK, http.StatusBadRequest}, statuses)
}

func TestLiveRouteOnlyWhenConfigured(t *testing.T) {
	api, _, _ := newTestAPI()
	rec, _ := do(t, api.Router(), http.MethodGet, "/ws")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	api.Live = func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusSwitchingProtocols) }
	rec = httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusSwitchingProtocols, rec.Code)
}

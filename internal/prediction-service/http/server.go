package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/winmix-prediction-poc/internal/prediction"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/dto"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/repo"
	"github.com/radieske/winmix-prediction-poc/internal/shared/metrics"
)

// Predictor é implementado por service.Predictor
type Predictor interface {
	Predict(ctx context.Context, home, away, algorithm, season string) (prediction.Result, bool, error)
}

// Catalog reúne as consultas de leitura usadas pela API (repo.MatchRepo)
type Catalog interface {
	ListTeams(ctx context.Context) ([]dto.Team, error)
	TeamStats(ctx context.Context, team, season string) (prediction.TeamStats, error)
	RecentMatches(ctx context.Context, team string, limit int, season string) ([]prediction.Match, error)
	Seasons(ctx context.Context) ([]string, error)
	CountMatches(ctx context.Context) (int, error)
	CountPredictions(ctx context.Context) (int, error)
	RecentResults(ctx context.Context, limit int) ([]dto.RecentResult, error)
	TopScorers(ctx context.Context, limit int) ([]dto.TopScorer, error)
	ListMatches(ctx context.Context, f dto.MatchFilter) ([]prediction.Match, error)
	GetMatch(ctx context.Context, id int64) (prediction.Match, error)
}

// API expõe os endpoints REST de predições, times, partidas e estatísticas.
// Limiter nil desliga o rate limit.
type API struct {
	Log       *zap.Logger
	Predictor Predictor
	Catalog   Catalog
	Checks    metrics.Checks   // dependências verificadas em /health
	Live      http.HandlerFunc // upgrade WebSocket do feed ao vivo (opcional)
	Limiter   *RateLimiter
	Version   string

	// Debug inclui a mensagem do erro interno nas respostas 500
	Debug bool

	CORSOrigins []string

	OnRequest func(route string, status int, d time.Duration) // métricas
}

// Router retorna o roteador HTTP com middlewares e endpoints
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(a.observe)
	r.Use(corsHandler(a.CORSOrigins))
	if a.Limiter != nil {
		r.Use(a.Limiter.Middleware)
	}

	r.Get("/health", a.health)
	r.Get("/predictions", a.predict)
	r.Get("/teams", a.listTeams)
	r.Get("/teams/{team}", a.teamDetails)
	r.Get("/statistics", a.statistics)
	r.Get("/matches", a.listMatches)
	r.Get("/matches/{id}", a.matchDetails)
	r.Get("/algorithms", a.algorithms)
	if a.Live != nil {
		r.Get("/ws", a.Live)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP. Se o valor
// não puder ser serializado (ex.: NaN) responde 500 e devolve o erro.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"internal server error"}` + "\n"))
		return err
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
	return nil
}

// writeSuccess: {"success": true, "timestamp": ..., <fields>}
func (a *API) writeSuccess(w http.ResponseWriter, r *http.Request, fields map[string]any) {
	body := map[string]any{
		"success":   true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range fields {
		body[k] = v
	}
	if err := writeJSON(w, http.StatusOK, body); err != nil {
		a.Log.Error("encode response failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]any{
		"success":   false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"error":     msg,
	})
}

// writeError mapeia erros de domínio para status HTTP
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, prediction.ErrInvalidArgument):
		writeFailure(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), prediction.ErrInvalidArgument.Error()+": "))
	case errors.Is(err, repo.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "not found")
	default:
		a.Log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		body := map[string]any{
			"success":   false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"error":     "internal server error",
		}
		if a.Debug {
			body["message"] = err.Error()
		}
		_ = writeJSON(w, http.StatusInternalServerError, body)
	}
}

// observe reporta rota, status e latência de cada requisição
func (a *API) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if a.OnRequest == nil {
			return
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.OnRequest(route, status, time.Since(start))
	})
}

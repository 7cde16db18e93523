package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/winmix-prediction-poc/internal/prediction"
)

// PredictionCache guarda o Result de cada confronto no Redis
// Client: cliente Redis
// TTL: tempo de expiração dos registros
type PredictionCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewPredictionCache(c *redis.Client, ttl time.Duration) *PredictionCache {
	return &PredictionCache{Client: c, TTL: ttl}
}

// AllSeasons marca a predição sem filtro de temporada. QueryEscape sempre
// escapa "*", então nenhum valor real chega a essa forma.
const AllSeasons = "*"

// Key monta prediction:{home}:{away}:{algorithm}:{season} com cada parte
// escapada; ":" dentro de um nome nunca se confunde com o separador.
func Key(home, away string, algorithm prediction.Algorithm, season string) string {
	s := AllSeasons
	if season != "" {
		s = url.QueryEscape(season)
	}
	return strings.Join([]string{
		"prediction",
		url.QueryEscape(home),
		url.QueryEscape(away),
		url.QueryEscape(string(algorithm)),
		s,
	}, ":")
}

// Get devolve ok=false quando a chave não existe (redis.Nil)
func (c *PredictionCache) Get(ctx context.Context, home, away string, algorithm prediction.Algorithm, season string) (prediction.Result, bool, error) {
	b, err := c.Client.Get(ctx, Key(home, away, algorithm, season)).Bytes()
	if errors.Is(err, redis.Nil) {
		return prediction.Result{}, false, nil
	}
	if err != nil {
		return prediction.Result{}, false, err
	}
	var res prediction.Result
	if err := json.Unmarshal(b, &res); err != nil {
		return prediction.Result{}, false, err
	}
	return res, true, nil
}

func (c *PredictionCache) Set(ctx context.Context, home, away string, algorithm prediction.Algorithm, season string, res prediction.Result) error {
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, Key(home, away, algorithm, season), b, c.TTL).Err()
}

// Ping é usado pelo /health e pelo /healthz do servidor de métricas
func (c *PredictionCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

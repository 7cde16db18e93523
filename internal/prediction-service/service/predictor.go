package service

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/radieske/winmix-prediction-poc/internal/prediction"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/cache"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/producer"
	"github.com/radieske/winmix-prediction-poc/pkg/contracts/events"
)

// Cache é implementado por cache.PredictionCache
type Cache interface {
	Get(ctx context.Context, home, away string, algorithm prediction.Algorithm, season string) (prediction.Result, bool, error)
	Set(ctx context.Context, home, away string, algorithm prediction.Algorithm, season string, res prediction.Result) error
}

// Publisher é implementado por producer.KafkaPublisher
type Publisher interface {
	PublishPredictionMade(ctx context.Context, e events.PredictionMade) error
}

const (
	computeTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Predictor é a fronteira entre a API e o Engine: cache, deduplicação de
// chamadas concorrentes, publicação do evento e callbacks de métricas.
// Cache e Publisher são opcionais.
type Predictor struct {
	Log       *zap.Logger
	Cache     Cache
	Publisher Publisher

	OnCacheHit func()                                  // métricas
	OnComputed func(algorithm string, d time.Duration) // métricas (latência por estratégia)
	OnError    func(string)                            // métricas por fase

	engine atomic.Pointer[prediction.Engine]
	group  singleflight.Group
}

func NewPredictor(engine *prediction.Engine, log *zap.Logger) *Predictor {
	p := &Predictor{Log: log}
	p.engine.Store(engine)
	return p
}

// Engine devolve o engine em uso no momento
func (p *Predictor) Engine() *prediction.Engine { return p.engine.Load() }

// SwapEngine troca o engine (ex.: parâmetros recarregados). Predições em
// andamento terminam com o engine antigo.
func (p *Predictor) SwapEngine(e *prediction.Engine) { p.engine.Store(e) }

// Predict valida a entrada, consulta o cache e, em caso de miss, calcula a
// predição uma única vez por chave mesmo com requisições simultâneas.
// O bool indica se o resultado veio do cache.
func (p *Predictor) Predict(ctx context.Context, home, away, algorithm, season string) (prediction.Result, bool, error) {
	home, away, season = strings.TrimSpace(home), strings.TrimSpace(away), strings.TrimSpace(season)
	if err := prediction.ValidateFixture(home, away); err != nil {
		return prediction.Result{}, false, err
	}
	alg, err := prediction.ParseAlgorithm(algorithm)
	if err != nil {
		return prediction.Result{}, false, err
	}

	if p.Cache != nil {
		res, ok, err := p.Cache.Get(ctx, home, away, alg, season)
		if err != nil {
			// cache fora do ar não impede a predição
			p.Log.Warn("prediction cache get failed", zap.Error(err))
			p.fail("cache_get")
		} else if ok {
			if p.OnCacheHit != nil {
				p.OnCacheHit()
			}
			return res, true, nil
		}
	}

	// o cálculo compartilhado não herda o cancelamento de quem chegou
	// primeiro; cada chamador espera só pelo próprio ctx
	ch := p.group.DoChan(cache.Key(home, away, alg, season), func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()
		return p.compute(cctx, home, away, alg, season)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return prediction.Result{}, false, r.Err
		}
		return r.Val.(prediction.Result), false, nil
	case <-ctx.Done():
		return prediction.Result{}, false, ctx.Err()
	}
}

func (p *Predictor) compute(ctx context.Context, home, away string, alg prediction.Algorithm, season string) (prediction.Result, error) {
	start := time.Now()
	res, err := p.Engine().Predict(ctx, home, away, alg, season)
	if err != nil {
		p.Log.Warn("prediction failed",
			zap.String("home", home),
			zap.String("away", away),
			zap.String("algorithm", string(alg)),
			zap.Error(err))
		p.fail("engine")
		return prediction.Result{}, err
	}
	if p.OnComputed != nil {
		p.OnComputed(string(alg), time.Since(start))
	}

	if p.Cache != nil {
		if err := p.Cache.Set(ctx, home, away, alg, season, res); err != nil {
			p.Log.Warn("prediction cache set failed", zap.Error(err))
			p.fail("cache_set")
		}
	}

	if p.Publisher != nil {
		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		ev := producer.NewPredictionMade(home, away, alg, season, res)
		if err := p.Publisher.PublishPredictionMade(pctx, ev); err != nil {
			p.Log.Warn("prediction publish failed", zap.String("prediction_id", ev.PredictionID), zap.Error(err))
			p.fail("publish")
		}
	}

	p.Log.Debug("prediction computed",
		zap.String("home", home),
		zap.String("away", away),
		zap.String("algorithm", string(alg)),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

func (p *Predictor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/winmix-prediction-poc/internal/prediction"
	predcache "github.com/radieske/winmix-prediction-poc/internal/prediction-service/cache"
	httpapi "github.com/radieske/winmix-prediction-poc/internal/prediction-service/http"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/live"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/producer"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/repo"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/service"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-service/tuning"
	sharedcache "github.com/radieske/winmix-prediction-poc/internal/shared/cache"
	"github.com/radieske/winmix-prediction-poc/internal/shared/config"
	"github.com/radieske/winmix-prediction-poc/internal/shared/db"
	"github.com/radieske/winmix-prediction-poc/internal/shared/kafka"
	"github.com/radieske/winmix-prediction-poc/internal/shared/logger"
	"github.com/radieske/winmix-prediction-poc/internal/shared/metrics"
)

// version é sobrescrita no build (-ldflags "-X main.version=...")
var version = "dev"

func main() {
	// carrega config
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "prediction-service"
	}

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.Debug)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service",
		zap.String("version", version),
		zap.String("db_driver", cfg.DBDriver))

	// migrations antes de abrir o pool
	if err := db.Migrate(cfg.DBDriver, cfg.DSN()); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	conn, err := db.Connect(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	defer conn.Close()
	log.Info("database connected")

	matches := repo.NewMatchRepo(conn, cfg.DBDriver)

	// parâmetros do engine (YAML ou TOML opcional sobre os defaults)
	params, err := config.LoadParams(cfg.TuningPath)
	if err != nil {
		log.Warn("tuning file rejected, using defaults", zap.String("path", cfg.TuningPath), zap.Error(err))
	}
	predictor := service.NewPredictor(prediction.NewEngine(matches, params), log)

	// Métricas Prometheus
	computed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "winmix_predictions_computed_total", Help: "predições calculadas por estratégia"}, []string{"algorithm"})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{Name: "winmix_prediction_cache_hits_total", Help: "predições servidas do cache"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "winmix_prediction_duration_seconds", Help: "tempo de cálculo por estratégia", Buckets: prometheus.DefBuckets}, []string{"algorithm"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "winmix_prediction_errors_total", Help: "erros por estágio"}, []string{"stage"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "winmix_http_requests_total", Help: "requisições por rota e status"}, []string{"route", "status"})
	reqLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "winmix_http_request_duration_seconds", Help: "latência por rota", Buckets: prometheus.DefBuckets}, []string{"route"})
	reloads := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "winmix_tuning_reloads_total", Help: "recargas do arquivo de tuning"}, []string{"result"})
	prometheus.MustRegister(computed, cacheHits, latency, errorsBy, requests, reqLatency, reloads)

	predictor.OnCacheHit = func() { cacheHits.Inc() }
	predictor.OnComputed = func(alg string, d time.Duration) {
		computed.WithLabelValues(alg).Inc()
		latency.WithLabelValues(alg).Observe(d.Seconds())
	}
	predictor.OnError = func(stage string) { errorsBy.WithLabelValues(stage).Inc() }

	checks := metrics.Checks{"db": conn.PingContext}

	// destinos do evento PredictionMade
	var publishers service.Publishers

	// cache Redis é opcional: sem ele toda requisição calcula e o feed ao vivo fica desligado
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = sharedcache.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			log.Warn("redis unavailable, prediction cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			pc := predcache.NewPredictionCache(redisClient, cfg.PredictionCacheTTL)
			predictor.Cache = pc
			checks["redis"] = pc.Ping
			publishers = append(publishers, live.NewRedisFeed(redisClient))
			log.Info("redis connected", zap.Duration("ttl", cfg.PredictionCacheTTL))
		}
	}

	// Kafka: PredictionMade para o prediction-recorder-worker
	if len(kafka.Brokers(cfg.KafkaBrokers)) > 0 {
		if cfg.Env == "local" || cfg.Env == "dev" {
			tctx, tcancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := kafka.EnsureTopic(tctx, cfg.KafkaBrokers, cfg.TopicPredictions, log); err != nil {
				log.Warn("failed to ensure kafka topic", zap.String("topic", cfg.TopicPredictions), zap.Error(err))
			}
			tcancel()
		}
		writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPredictions)
		defer writer.Close()
		publishers = append(publishers, producer.NewKafkaPublisher(writer, log))
		log.Info("kafka writer ready", zap.String("topic", cfg.TopicPredictions))
	}

	if len(publishers) > 0 {
		predictor.Publisher = publishers
	}

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// hot reload dos parâmetros
	if cfg.TuningPath != "" {
		w, err := tuning.New(cfg.TuningPath, log, func(p prediction.Params) {
			predictor.SwapEngine(prediction.NewEngine(matches, p))
		})
		if err != nil {
			log.Warn("tuning watcher disabled", zap.Error(err))
		} else {
			w.OnReload = func(ok bool) { reloads.WithLabelValues(strconv.FormatBool(ok)).Inc() }
			go func() { _ = w.Run(ctx) }()
		}
	}

	api := &httpapi.API{
		Log:         log,
		Predictor:   predictor,
		Catalog:     matches,
		Checks:      checks,
		Debug:       cfg.Debug,
		Version:     version,
		CORSOrigins: cfg.CORSOrigins,
		OnRequest: func(route string, status int, d time.Duration) {
			requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			reqLatency.WithLabelValues(route).Observe(d.Seconds())
		},
	}
	if predictor.Cache != nil {
		hub := live.NewHub(allowOrigin(cfg.CORSOrigins), log)
		api.Live = hub.HandleWS
		go live.Relay(ctx, redisClient, hub, log)
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: "winmix_live_feed_subscribers", Help: "clientes WebSocket inscritos no feed completo"},
			func() float64 { return float64(hub.Subscribers(live.AllFixtures)) },
		))
	}
	if cfg.RateLimit > 0 {
		api.Limiter = httpapi.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
		go api.Limiter.Cleanup(ctx, time.Minute)
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, checks, log)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	go func() {
		log.Info("http api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics shutdown", zap.Error(err))
	}
	log.Info("prediction-service stopped")
}

// allowOrigin aplica ao WebSocket a mesma lista de origens do CORS
func allowOrigin(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

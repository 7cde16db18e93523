package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/winmix-prediction-poc/internal/prediction-recorder/consumer"
	"github.com/radieske/winmix-prediction-poc/internal/prediction-recorder/repository"
	"github.com/radieske/winmix-prediction-poc/internal/shared/config"
	"github.com/radieske/winmix-prediction-poc/internal/shared/db"
	"github.com/radieske/winmix-prediction-poc/internal/shared/kafka"
	"github.com/radieske/winmix-prediction-poc/internal/shared/logger"
	"github.com/radieske/winmix-prediction-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "prediction-recorder-worker"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Banco: a tabela predictions vem das migrations
	if err := db.Migrate(cfg.DBDriver, cfg.DSN()); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	conn, err := db.Connect(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer conn.Close()

	store := repository.NewPredictionRepo(conn, cfg.DBDriver)

	// Configura o consumer Kafka (consumer group prediction-recorder)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicPredictions, "prediction-recorder")
	defer reader.Close()

	// DLQ para mensagens inválidas ou que não persistiram
	var dlqWriter *kafkago.Writer
	if cfg.TopicPredictionsDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPredictionsDLQ)
		defer dlqWriter.Close()
	}

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "winmix_recorder_messages_consumed_total", Help: "mensagens consumidas"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "winmix_recorder_db_writes_total", Help: "predições gravadas"})
	deadLetters := prometheus.NewCounter(prometheus.CounterOpts{Name: "winmix_recorder_dead_letters_total", Help: "mensagens enviadas para a DLQ"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "winmix_recorder_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, persist, deadLetters, errorsBy)

	proc := &consumer.Processor{
		Log:          log,
		Reader:       reader,
		Repo:         store,
		Backoff:      500 * time.Millisecond,
		OnConsumed:   func() { consumed.Inc() },
		OnPersist:    func() { persist.Inc() },
		OnDeadLetter: func() { deadLetters.Inc() },
		OnError:      func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}
	// evita interface com ponteiro nil quando a DLQ está desligada
	if dlqWriter != nil {
		proc.DLQ = dlqWriter
	}

	// Servidor HTTP para métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks{"db": conn.PingContext}, log)

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("prediction-recorder started",
		zap.String("consume", cfg.TopicPredictions),
		zap.String("dlq", cfg.TopicPredictionsDLQ))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("prediction-recorder stopped")
}

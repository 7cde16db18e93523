package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/winmix-prediction-poc/internal/shared/kafka"
	"github.com/radieske/winmix-prediction-poc/pkg/contracts/events"
)

// MessageReader é o subconjunto de *kafka.Reader usado pelo Processor
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
}

// Store é implementado por repository.PredictionRepo
type Store interface {
	InsertPrediction(ctx context.Context, e events.PredictionMade) error
}

const (
	defaultBackoff = 500 * time.Millisecond
	insertRetries  = 3
)

// Processor consome PredictionMade do Kafka e persiste no banco.
// Mensagens que não decodificam ou não persistem após os retries vão para a
// DLQ (opcional). Callbacks de métricas podem ser usadas para cada etapa.
type Processor struct {
	Log    *zap.Logger
	Reader MessageReader
	Repo   Store
	DLQ    kafka.MessageWriter

	Backoff time.Duration // espera após falha de leitura e entre retries

	OnConsumed   func()       // métricas (counter++)
	OnPersist    func()       // métricas
	OnDeadLetter func()       // métricas
	OnError      func(string) // métricas por fase
}

// Run inicia o loop principal de consumo; retorna quando o contexto é cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			if !p.sleep(ctx) {
				return ctx.Err()
			}
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var ev events.PredictionMade
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			p.Log.Warn("invalid message", zap.Int64("offset", m.Offset), zap.Error(err))
			p.fail("decode")
			p.deadLetter(ctx, m, err)
			continue
		}
		if ev.PredictionID == "" {
			err := errors.New("missing prediction id")
			p.Log.Warn("invalid message", zap.Int64("offset", m.Offset), zap.Error(err))
			p.fail("decode")
			p.deadLetter(ctx, m, err)
			continue
		}

		if err := p.persist(ctx, ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Error("db insert failed",
				zap.String("prediction_id", ev.PredictionID),
				zap.Error(err))
			p.fail("db_insert")
			p.deadLetter(ctx, m, err)
			continue
		}
		if p.OnPersist != nil {
			p.OnPersist()
		}
	}
}

// persist tenta gravar algumas vezes antes de desistir
func (p *Processor) persist(ctx context.Context, ev events.PredictionMade) error {
	var err error
	for i := 0; i < insertRetries; i++ {
		if err = p.Repo.InsertPrediction(ctx, ev); err == nil {
			return nil
		}
		if i < insertRetries-1 && !p.sleep(ctx) {
			return ctx.Err()
		}
	}
	return err
}

// deadLetter reenvia a mensagem original para a DLQ com o motivo no header
func (p *Processor) deadLetter(ctx context.Context, m kafkago.Message, cause error) {
	if p.DLQ == nil {
		return
	}
	msg := kafkago.Message{
		Key:   m.Key,
		Value: m.Value,
		Time:  time.Now(),
		Headers: []kafkago.Header{
			{Key: "error", Value: []byte(cause.Error())},
			{Key: "source_topic", Value: []byte(m.Topic)},
		},
	}
	if err := p.DLQ.WriteMessages(ctx, msg); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
		p.fail("dlq")
		return
	}
	if p.OnDeadLetter != nil {
		p.OnDeadLetter()
	}
}

func (p *Processor) sleep(ctx context.Context) bool {
	d := p.Backoff
	if d <= 0 {
		d = defaultBackoff
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

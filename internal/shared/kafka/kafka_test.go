package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, Brokers(" a:9092, b:9092,,"))
	assert.Nil(t, Brokers(""))
}

func TestNewWriterUsesAllBrokers(t *testing.T) {
	w := NewWriter("a:9092,b:9092", "prediction_made")
	assert.Equal(t, "prediction_made", w.Topic)
	assert.Contains(t, w.Addr.String(), "a:9092")
	assert.Contains(t, w.Addr.String(), "b:9092")
}

func TestWriteJSON(t *testing.T) {
	w := &captureWriter{}
	err := WriteJSON(context.Background(), w, "arsenal:chelsea", map[string]string{"algorithm": "poisson"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "arsenal:chelsea", string(w.msgs[0].Key))

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "poisson", got["algorithm"])
	assert.False(t, w.msgs[0].Time.IsZero())
}

func TestWriteJSONErrors(t *testing.T) {
	w := &captureWriter{err: errors.New("broker down")}
	err := WriteJSON(context.Background(), w, "k", 1)
	assert.ErrorContains(t, err, "write kafka message: broker down")

	err = WriteJSON(context.Background(), &captureWriter{}, "k", func() {})
	assert.ErrorContains(t, err, "marshal kafka payload")
}

func TestEnsureTopicWithoutBrokers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, EnsureTopic(ctx, "", "prediction_made", zap.NewNop()))
}

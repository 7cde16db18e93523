package live

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/winmix-prediction-poc/pkg/contracts/events"
)

// Channel é o canal Redis Pub/Sub que leva as predições a todas as réplicas
const Channel = "predictions_live_broadcast"

// RedisFeed publica cada predição no Pub/Sub; cada réplica repassa para os
// próprios clientes WebSocket via Relay.
type RedisFeed struct {
	r *redis.Client
}

func NewRedisFeed(r *redis.Client) *RedisFeed {
	return &RedisFeed{r: r}
}

// PublishPredictionMade satisfaz service.Publisher
func (f *RedisFeed) PublishPredictionMade(ctx context.Context, e events.PredictionMade) error {
	b, err := json.Marshal(Update{Fixture: FixtureKey(e.HomeTeam, e.AwayTeam), Prediction: e})
	if err != nil {
		return err
	}
	return f.r.Publish(ctx, Channel, b).Err()
}

// Relay escuta o canal e repassa as atualizações para o Hub. Bloqueia até o
// contexto ser cancelado.
func Relay(ctx context.Context, r *redis.Client, hub *Hub, log *zap.Logger) {
	sub := r.Subscribe(ctx, Channel)
	defer sub.Close()
	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var u Update
			if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
				log.Warn("live relay unmarshal error", zap.Error(err))
				continue
			}
			hub.Broadcast(u)
		}
	}
}

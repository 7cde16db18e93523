package service

import (
	"context"
	"errors"

	"github.com/radieske/winmix-prediction-poc/pkg/contracts/events"
)

// Publishers entrega o evento a todos os destinos (Kafka, feed ao vivo).
// Uma falha não impede os demais; os erros voltam agregados.
type Publishers []Publisher

func (ps Publishers) PublishPredictionMade(ctx context.Context, e events.PredictionMade) error {
	var errs []error
	for _, p := range ps {
		if err := p.PublishPredictionMade(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package bootstrap preloads recent history into the signal generator so
// the crossover has context before the first live bar closes.
package bootstrap

import (
	"context"

	"github.com/pkg/errors"

	"fxbot/internal/models"
	"fxbot/internal/strategy"
	"fxbot/pkg/logger"
	"fxbot/pkg/retry"
)

// History is the batch candle surface; unlike the live path it is safe
// to retry, so Warmup wraps it in the bounded backoff policy.
type History interface {
	GetCandles(ctx context.Context, instrument, barParam string, limit int) ([]models.Bar, error)
}

type Warmuper struct {
	hist   History
	engine strategy.Engine
	policy retry.Policy
}

func NewWarmuper(hist History, engine strategy.Engine) *Warmuper {
	return &Warmuper{
		hist:   hist,
		engine: engine,
		policy: retry.DefaultPolicy(),
	}
}

// Warmup fetches the last `bars` closed bars and replays them through
// the engine. Signals fired on historical bars are discarded.
func (w *Warmuper) Warmup(ctx context.Context, instrument, barParam string, bars int) error {
	if bars <= 0 {
		return nil
	}

	var history []models.Bar
	err := retry.Do(ctx, w.policy, func(ctx context.Context) error {
		var err error
		history, err = w.hist.GetCandles(ctx, instrument, barParam, bars)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "warmup %s", instrument)
	}

	for _, bar := range history {
		_ = w.engine.OnBar(bar)
	}
	logger.Info("warmup %s: replayed %d bars", instrument, len(history))
	return nil
}

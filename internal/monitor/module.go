package monitor

import (
	"context"

	"go.uber.org/fx"

	"fxbot/internal/benchmark"
	"fxbot/internal/exchange"
	"fxbot/internal/modules/config"
	"fxbot/internal/modules/telegram/service"
	"fxbot/pkg/db"
)

func Module() fx.Option {
	return fx.Module("monitor",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config, client *exchange.Client, tm *db.PgTxManager, tg *service.Telegram) (*Monitor, error) {
				bench, err := benchmark.NewResolver(cfg.BenchmarkFile).
					Resolve(cfg.BenchmarkID, cfg.FastPeriod, cfg.SlowPeriod)
				if err != nil {
					return nil, err
				}

				var journal Journal
				if tm != nil {
					pg, err := NewPgJournal(ctx, tm)
					if err != nil {
						return nil, err
					}
					journal = pg
				}

				return New(
					cfg.Instrument,
					cfg.PollInterval,
					DefaultThresholds(),
					bench,
					client,
					NewStore(cfg.StorePath),
					journal,
					tg,
				)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, ctx context.Context, m *Monitor) {
			mctx, cancel := context.WithCancel(ctx)
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go m.Run(mctx)
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					cancel()
					// let the in-flight cycle finish or abort cleanly
					select {
					case <-m.Done():
						return nil
					case <-stopCtx.Done():
						return stopCtx.Err()
					}
				},
			})
		}),
	)
}

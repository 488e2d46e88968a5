package runner

import (
	"context"

	"go.uber.org/fx"

	"fxbot/internal/bootstrap"
	"fxbot/internal/exchange"
	"fxbot/internal/modules/config"
	"fxbot/internal/modules/telegram/service"
	"fxbot/internal/strategy"
	"fxbot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			func(cfg *config.Config) *exchange.Client {
				client := exchange.NewClient()
				client.SetCreds(cfg.APIKey, cfg.APISecret, cfg.APIPassphrase)
				return client
			},
			func(cfg *config.Config) (strategy.Engine, error) {
				return strategy.NewSMACross(cfg.FastPeriod, cfg.SlowPeriod)
			},
			func(cfg *config.Config, client *exchange.Client, stg strategy.Engine, tg *service.Telegram) *Runner {
				return New(cfg, client, stg, tg)
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			shutdowner fx.Shutdowner,
			ctx context.Context,
			cfg *config.Config,
			client *exchange.Client,
			stg strategy.Engine,
			r *Runner,
			tg *service.Telegram,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						if cfg.WarmupBars > 0 {
							w := bootstrap.NewWarmuper(client, stg)
							if err := w.Warmup(ctx, cfg.Instrument, cfg.BarParam(), cfg.WarmupBars); err != nil {
								logger.Warn("warmup skipped: %v", err)
							}
						}
						if err := r.Start(ctx); err != nil {
							if exchange.IsConnectionFailure(err) {
								logger.Error("runner connection failure: %v", err)
								tg.SendF(ctx, "❗️ [%s] connection failure, trading stopped: %v", cfg.Instrument, err)
							} else {
								logger.Error("runner stopped: %v", err)
							}
						}
						_ = shutdowner.Shutdown()
					}()
					return nil
				},
			})
		}),
	)
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/fx"

	"fxbot/internal/modules/config"
	"fxbot/internal/modules/postgres"
	"fxbot/internal/modules/telegram"
	"fxbot/internal/monitor"
	"fxbot/internal/runner"
	"fxbot/pkg/logger"
	"fxbot/pkg/tracing"
)

func main() {
	if err := logger.Init(os.Getenv("DEBUG") == "1"); err != nil {
		log.Fatal(err)
	}
	logger.SetServiceName("fxbot")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				return ctx
			},
		),
		config.Module(),
		postgres.Module(),
		telegram.Module(),
		runner.Module(),
		monitor.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			if cfg.Jaeger.Host == "" {
				return nil
			}
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				ServiceName: "fxbot",
				Host:        cfg.Jaeger.Host,
				Port:        cfg.Jaeger.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
	)

	app.Run()
}

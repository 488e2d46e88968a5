package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"fxbot/internal/modules/config"
	"fxbot/pkg/db"
	"fxbot/pkg/logger"
)

// Module provides the tx manager for the trade journal. Without a DSN
// the provider yields nil and the journal stays disabled.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					logger.Info("db_dsn not set, trade journal disabled")
					return nil, nil
				}
				pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB})
				if err != nil {
					return nil, fmt.Errorf("failed to create pool: %w", err)
				}
				if err := pool.Ping(ctx); err != nil {
					return nil, err
				}
				return db.NewPgTxManager(pool), nil
			},
		),
	)
}

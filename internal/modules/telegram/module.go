package telegram

import (
	"go.uber.org/fx"

	"fxbot/internal/modules/telegram/service"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewTelegram,
		),
	)
}

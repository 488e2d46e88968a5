package service

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fxbot/internal/modules/config"
	"fxbot/pkg/logger"
)

// Telegram pushes operator notifications (alerts, fatal errors) to the
// configured chat. Without a token it degrades to log-only.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(cfg *config.Config) (*Telegram, error) {
	if cfg.Telegram.Token == "" {
		logger.Info("telegram token not set, notifications go to log only")
		return &Telegram{}, nil
	}
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: cfg.Telegram.ChatID}, nil
}

func (t *Telegram) Send(ctx context.Context, msg string) error {
	if t == nil || t.bot == nil {
		logger.Info("notify: %s", msg)
		return nil
	}
	_, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg))
	return err
}

func (t *Telegram) SendF(ctx context.Context, format string, args ...any) {
	if err := t.Send(ctx, fmt.Sprintf(format, args...)); err != nil {
		logger.Warn("telegram send: %v", err)
	}
}

package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-expiry-reminder/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.TelegramBotAdapter for local/dev runs.
// It logs messages instead of sending real Telegram messages.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	l := logger.With().Str("component", "NoopBot").Logger()
	return &NoopBotAdapter{log: &l}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev := b.log.Info().Int64("chat_id", params.ChatID).Str("text", params.Text)
	if params.ReplyMarkup != nil {
		ev = ev.Interface("buttons", params.ReplyMarkup.Buttons)
	}
	ev.Msg("send message")
	return nil
}

func (b *NoopBotAdapter) SetMenuCommands(ctx context.Context, commands []adapter.MenuCommand) error {
	b.log.Info().Int("count", len(commands)).Msg("set menu commands")
	return nil
}

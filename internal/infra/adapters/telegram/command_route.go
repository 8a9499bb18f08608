package telegram

import (
	"context"

	"telegram-expiry-reminder/internal/domain/ports/adapter"
	"telegram-expiry-reminder/internal/infra/logging"
	"telegram-expiry-reminder/internal/infra/metrics"
	"telegram-expiry-reminder/internal/usecase"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		usecase.CmdStart:  r.handleStartCommand,
		usecase.CmdAdd:    r.forwardCommand,
		usecase.CmdStop:   r.forwardCommand,
		usecase.CmdGetAll: r.forwardCommand,
		usecase.CmdDelete: r.forwardCommand,
		usecase.CmdHelp:   r.forwardCommand,
	}
}

func (r *RealTelegramBotAdapter) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	cmd := message.Command()
	handler, ok := r.commandRoutes()[cmd]
	if !ok {
		metrics.IncTelegramCommand("unknown")
		// the conversation answers unknown commands with its "not understood" reply
		return r.forwardCommand(ctx, message)
	}
	metrics.IncTelegramCommand("/" + cmd)
	return handler(ctx, message)
}

// handleStartCommand greets the user and refreshes the command menu.
func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	if err := r.SetMenuCommands(ctx, MenuCommands(r.translator)); err != nil {
		// Log the error but don't block the user
		logging.With(ctx, r.log).Warn().Err(err).Msg("failed to set menu commands")
	}
	return r.forwardCommand(ctx, message)
}

func (r *RealTelegramBotAdapter) forwardCommand(ctx context.Context, message *tgbotapi.Message) error {
	replies, err := r.conv.HandleCommand(ctx, message.From.ID, message.Command())
	if err != nil {
		return r.replyFailure(ctx, message.Chat.ID, err)
	}
	return r.sendReplies(ctx, message.Chat.ID, replies)
}

// MenuCommands lists the bot commands with localized descriptions.
func MenuCommands(tr usecase.Translator) []adapter.MenuCommand {
	out := make([]adapter.MenuCommand, 0, len(usecase.Commands))
	for _, c := range usecase.Commands {
		out = append(out, adapter.MenuCommand{Command: c, Description: tr.T("menu_" + c)})
	}
	return out
}

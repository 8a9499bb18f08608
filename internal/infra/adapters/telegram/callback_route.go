package telegram

import (
	"context"
	"errors"
	"strings"

	"telegram-expiry-reminder/internal/infra/logging"
	"telegram-expiry-reminder/internal/infra/metrics"
	"telegram-expiry-reminder/internal/usecase"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// cbHandler answers a callback and returns the text for the callback acknowledgement.
type cbHandler func(ctx context.Context, query *tgbotapi.CallbackQuery, chatID int64, data string) (string, error)

type prefixCB struct {
	Match func(data string) bool
	Fn    cbHandler
}

// Prefix-match callbacks
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{
			Match: usecase.IsDeleteToken,
			Fn:    r.deletePrefixCBRoute,
		},
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}
	ctx = logging.WithTgID(ctx, query.From.ID)

	var chatID int64
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	} else {
		chatID = query.From.ID
	}

	notice := ""
	// Stop telegram spinner when we return
	defer func() {
		if _, err := r.api.Request(tgbotapi.NewCallback(query.ID, notice)); err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Msg("callback ack failed")
		}
	}()

	if !r.allow(ctx, query.From.ID) {
		notice = r.translator.T("error_rate_limited")
		return nil
	}

	data := strings.TrimSpace(query.Data)
	for _, pr := range r.cbPrefixRoutes() {
		if pr.Match(data) {
			var err error
			notice, err = pr.Fn(ctx, query, chatID, data)
			return err
		}
	}

	metrics.IncTelegramCallback("unknown")
	logging.With(ctx, r.log).Warn().Str("data", data).Msg("unknown callback data")
	notice = r.translator.T("error_action")
	return nil
}

func (r *RealTelegramBotAdapter) deletePrefixCBRoute(ctx context.Context, query *tgbotapi.CallbackQuery, chatID int64, data string) (string, error) {
	metrics.IncTelegramCallback(usecase.ActionDelete)
	res, err := r.conv.HandleAction(ctx, query.From.ID, data)
	if err != nil {
		return r.translator.T("error_generic"), r.replyFailure(ctx, chatID, err)
	}
	return res.Notice, r.sendReplies(ctx, chatID, res.Replies)
}

package telegram

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-expiry-reminder/internal/config"
	"telegram-expiry-reminder/internal/domain/ports/adapter"
	"telegram-expiry-reminder/internal/infra/logging"
	"telegram-expiry-reminder/internal/infra/metrics"
	"telegram-expiry-reminder/internal/usecase"
)

// maxMessageLen is Telegram's limit for a single text message, in runes.
const maxMessageLen = 4096

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// botAPI is the part of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// RateLimiter is satisfied by redis.RateLimiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Options carries the optional collaborators of the adapter.
type Options struct {
	Workers   int
	Limiter   RateLimiter
	PerMinute int
	LimitKey  func(userID int64) string
	Dev       bool
}

// RealTelegramBotAdapter polls updates with tgbotapi and delegates to the conversation use case.
type RealTelegramBotAdapter struct {
	api        botAPI
	conv       usecase.ConversationUseCase
	translator usecase.Translator
	opts       Options
	log        *zerolog.Logger
}

func NewRealTelegramBotAdapter(cfg config.BotConfig, conv usecase.ConversationUseCase, translator usecase.Translator, opts Options, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg.Token == "" {
		return nil, errors.New("bot token is empty")
	}
	if opts.Workers <= 0 {
		opts.Workers = cfg.Workers
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	a := newAdapter(bot, conv, translator, opts, logger)
	a.log.Info().Str("username", bot.Self.UserName).Msg("authorized on telegram")
	return a, nil
}

func newAdapter(api botAPI, conv usecase.ConversationUseCase, translator usecase.Translator, opts Options, logger *zerolog.Logger) *RealTelegramBotAdapter {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	botLog := logger.With().Str("component", "TelegramBot").Logger()
	return &RealTelegramBotAdapter{
		api:        api,
		conv:       conv,
		translator: translator,
		opts:       opts,
		log:        &botLog,
	}
}

// StartPolling blocks until ctx is cancelled or the update channel closes.
// Updates of one user always land on the same worker, so they are handled in order.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	queues := make([]chan tgbotapi.Update, r.opts.Workers)
	for i := range queues {
		queues[i] = make(chan tgbotapi.Update, 32)
		wg.Add(1)
		go func(id int, in <-chan tgbotapi.Update) {
			defer wg.Done()
			for up := range in {
				if err := r.handleUpdate(ctx, up); err != nil {
					r.log.Error().Err(err).Int("worker", id).Int("update_id", up.UpdateID).Msg("handle update failed")
				}
			}
		}(i, queues[i])
	}
	r.log.Info().Int("workers", r.opts.Workers).Msg("polling started")

	shutdown := func() {
		r.api.StopReceivingUpdates()
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
		r.log.Info().Msg("polling stopped")
	}

	for {
		select {
		case <-ctx.Done():
			shutdown()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				shutdown()
				return nil
			}
			q := queues[partition(senderID(up), len(queues))]
			select {
			case q <- up:
			case <-ctx.Done():
			}
		}
	}
}

func partition(userID int64, n int) int {
	p := int(userID % int64(n))
	if p < 0 {
		p = -p
	}
	return p
}

func senderID(up tgbotapi.Update) int64 {
	switch {
	case up.CallbackQuery != nil && up.CallbackQuery.From != nil:
		return up.CallbackQuery.From.ID
	case up.Message != nil && up.Message.From != nil:
		return up.Message.From.ID
	case up.Message != nil && up.Message.Chat != nil:
		return up.Message.Chat.ID
	}
	return 0
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ctx = logging.WithTraceID(ctx, ulid.Make().String())

	// ----- Inline button callbacks -----
	if update.CallbackQuery != nil {
		ctx = logging.WithUpdateKind(ctx, "callback")
		return r.handleQuery(ctx, update.CallbackQuery)
	}

	// ----- Regular messages -----
	message := update.Message
	if message == nil || message.From == nil || message.Chat == nil {
		return nil
	}
	ctx = logging.WithTgID(ctx, message.From.ID)

	if !r.allow(ctx, message.From.ID) {
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   r.translator.T("error_rate_limited"),
		})
	}

	if message.IsCommand() {
		ctx = logging.WithUpdateKind(ctx, "command")
		return r.handleCommand(ctx, message)
	}
	if message.Text == "" {
		return nil
	}
	ctx = logging.WithUpdateKind(ctx, "text")
	log := logging.With(ctx, r.log)
	log.Debug().Str("text", logging.Redact(message.Text, r.opts.Dev)).Msg("text message")

	replies, err := r.conv.HandleText(ctx, message.From.ID, message.Text)
	if err != nil {
		return r.replyFailure(ctx, message.Chat.ID, err)
	}
	return r.sendReplies(ctx, message.Chat.ID, replies)
}

// allow applies the per-user limit. Limiter failures let the update through.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, userID int64) bool {
	if r.opts.Limiter == nil || r.opts.PerMinute <= 0 {
		return true
	}
	key := r.opts.LimitKey
	if key == nil {
		return true
	}
	ok, err := r.opts.Limiter.Allow(ctx, key(userID), r.opts.PerMinute, time.Minute)
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limit check failed")
		return true
	}
	if !ok {
		metrics.IncRateLimitTriggered()
	}
	return ok
}

// replyFailure logs a store-level failure and gives the user a generic answer.
func (r *RealTelegramBotAdapter) replyFailure(ctx context.Context, chatID int64, cause error) error {
	metrics.IncConversationError("internal")
	logging.With(ctx, r.log).Error().Err(cause).Msg("conversation failed")
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID: chatID,
		Text:   r.translator.T("error_generic"),
	})
}

func (r *RealTelegramBotAdapter) sendReplies(ctx context.Context, chatID int64, replies []usecase.Reply) error {
	for _, reply := range replies {
		params := adapter.SendMessageParams{ChatID: chatID, Text: reply.Text}
		if len(reply.Buttons) > 0 {
			params.ReplyMarkup = &adapter.ReplyMarkup{Buttons: reply.Buttons, IsInline: true}
		}
		if err := r.SendMessage(ctx, params); err != nil {
			return err
		}
	}
	return nil
}

// SendMessage sends params.Text, split into several messages when it exceeds
// Telegram's limit. The markup rides on the last part.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	parts := splitText(params.Text, maxMessageLen)
	for i, part := range parts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		msg := tgbotapi.NewMessage(params.ChatID, part)
		msg.ParseMode = params.ParseMode
		if i == len(parts)-1 && params.ReplyMarkup != nil {
			msg.ReplyMarkup = buildMarkup(params.ReplyMarkup)
		}
		if _, err := r.api.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

// SetMenuCommands registers the bot's command menu for all chats.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context, commands []adapter.MenuCommand) error {
	list := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, c := range commands {
		list = append(list, tgbotapi.BotCommand{Command: c.Command, Description: c.Description})
	}
	_, err := r.api.Request(tgbotapi.NewSetMyCommands(list...))
	return err
}

// buildMarkup converts port buttons to tgbotapi keyboards.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
// - Else a safe fallback uses btn.Text as callback data
func buildMarkup(m *adapter.ReplyMarkup) interface{} {
	if !m.IsInline {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(m.Buttons))
		for _, row := range m.Buttons {
			if len(row) == 0 {
				continue
			}
			kr := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, btn := range row {
				kr = append(kr, tgbotapi.NewKeyboardButton(btn.Text))
			}
			rows = append(rows, kr)
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		return kb
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(m.Buttons))
	for _, row := range m.Buttons {
		if len(row) == 0 {
			continue
		}
		kr := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := btn.Text
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, kr)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}

// splitText cuts s into chunks of at most limit runes, preferring line breaks.
func splitText(s string, limit int) []string {
	if utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	var out []string
	runes := []rune(s)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		out = append(out, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

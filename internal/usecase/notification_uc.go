package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"telegram-expiry-reminder/internal/domain/model"
	"telegram-expiry-reminder/internal/domain/ports/adapter"
	"telegram-expiry-reminder/internal/domain/ports/repository"
	"telegram-expiry-reminder/internal/infra/logging"
	"telegram-expiry-reminder/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// warningTierKeys maps a tier value to its pluralized header. The forms are
// fixed per value, no numeral agreement is computed.
var warningTierKeys = map[int]string{
	1: "tier_days_1",
	3: "tier_days_3",
	5: "tier_days_5",
}

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// NotificationUseCase runs one notification pass over the product store.
type NotificationUseCase interface {
	// CheckAndNotify classifies every product against today and broadcasts the
	// result. It returns the number of messages delivered.
	CheckAndNotify(ctx context.Context) (int, error)
}

type notificationUC struct {
	products   repository.ProductRepository
	bot        adapter.TelegramBotAdapter
	tr         Translator
	recipients []int64
	clock      func() time.Time
	log        *zerolog.Logger
}

func NewNotificationUseCase(
	products repository.ProductRepository,
	bot adapter.TelegramBotAdapter,
	tr Translator,
	recipients []int64,
	clock func() time.Time,
	logger *zerolog.Logger,
) *notificationUC {
	if clock == nil {
		clock = time.Now
	}
	compLog := logger.With().Str("component", "NotificationUC").Logger()
	return &notificationUC{
		products:   products,
		bot:        bot,
		tr:         tr,
		recipients: append([]int64(nil), recipients...),
		clock:      clock,
		log:        &compLog,
	}
}

func (n *notificationUC) CheckAndNotify(ctx context.Context) (int, error) {
	defer logging.TraceDuration(n.log, "NotificationUC.CheckAndNotify")()

	items, err := n.products.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}
	today := n.clock()
	tiers := ClassifyExpiry(today, items)

	if !tiers.HasWarnings() {
		// Today and expired alerts ride on the warning tiers; without a
		// warning the whole tick is silent.
		if !tiers.IsEmpty() {
			n.log.Info().
				Int("today", len(tiers.Today)).
				Int("expired", len(tiers.Expired)).
				Msg("no warning tiers, notifications suppressed")
			metrics.IncNotificationTick("suppressed")
		} else {
			metrics.IncNotificationTick("empty")
		}
		return 0, nil
	}

	grouped := n.composeGrouped(tiers)
	expired := n.composeExpired(tiers.Expired)

	sent := 0
	var firstErr error
	for _, chatID := range n.recipients {
		msgs := make([]adapter.SendMessageParams, 0, 1+len(expired))
		msgs = append(msgs, adapter.SendMessageParams{ChatID: chatID, Text: grouped})
		for _, m := range expired {
			m.ChatID = chatID
			msgs = append(msgs, m)
		}
		for i, m := range msgs {
			if err := ctx.Err(); err != nil {
				return sent, err
			}
			kind := "grouped"
			if i > 0 {
				kind = "expired"
			}
			if err := n.bot.SendMessage(ctx, m); err != nil {
				metrics.IncNotificationFailure()
				n.log.Error().Err(err).Int64("chat_id", chatID).Str("kind", kind).Msg("send notification failed")
				if firstErr == nil {
					firstErr = fmt.Errorf("send to %d: %w", chatID, err)
				}
				continue
			}
			metrics.IncNotificationSent(kind)
			sent++
		}
	}

	if firstErr != nil {
		metrics.IncNotificationTick("error")
	} else {
		metrics.IncNotificationTick("sent")
	}
	n.log.Info().Int("sent", sent).Int("recipients", len(n.recipients)).Msg("notification pass finished")
	return sent, firstErr
}

// composeGrouped renders the today block first, then warning blocks in tier order.
func (n *notificationUC) composeGrouped(t Tiers) string {
	var blocks []string
	if len(t.Today) > 0 {
		blocks = append(blocks, n.block(n.tr.T("notify_today_header"), t.Today))
	}
	for _, d := range WarningTiers {
		members := t.Warnings[d]
		if len(members) == 0 {
			continue
		}
		blocks = append(blocks, n.block(n.tr.T(warningTierKeys[d]), members))
	}
	return strings.Join(blocks, "\n\n")
}

func (n *notificationUC) block(header string, items []*model.Product) string {
	var b strings.Builder
	b.WriteString(header)
	for _, p := range items {
		b.WriteString("\n")
		b.WriteString(p.Name)
	}
	return b.String()
}

func (n *notificationUC) composeExpired(items []*model.Product) []adapter.SendMessageParams {
	out := make([]adapter.SendMessageParams, 0, len(items))
	for _, p := range items {
		out = append(out, adapter.SendMessageParams{
			Text: n.tr.T("notify_expired", p.Name, p.ExpiresOn.Format(DateLayout)),
			ReplyMarkup: &adapter.ReplyMarkup{
				IsInline: true,
				Buttons: [][]adapter.Button{{
					{Text: n.tr.T("button_delete"), Data: EncodeDeleteToken(p.ID)},
				}},
			},
		})
	}
	return out
}

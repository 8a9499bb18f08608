package usecase

import (
	"context"
	"errors"
	"strings"

	"telegram-expiry-reminder/internal/domain"
	"telegram-expiry-reminder/internal/domain/model"
	"telegram-expiry-reminder/internal/domain/ports/adapter"
	"telegram-expiry-reminder/internal/domain/ports/repository"
	"telegram-expiry-reminder/internal/infra/logging"
	"telegram-expiry-reminder/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Bot commands, without the leading slash.
const (
	CmdStart  = "start"
	CmdAdd    = "add"
	CmdStop   = "stop"
	CmdGetAll = "get_all"
	CmdDelete = "delete"
	CmdHelp   = "help"
)

// Commands lists every command in menu order.
var Commands = []string{CmdStart, CmdAdd, CmdStop, CmdGetAll, CmdDelete, CmdHelp}

// DateLayout is how expiry dates are shown to users.
const DateLayout = "02.01.2006"

// Translator is the subset of i18n.Translator the use cases need.
type Translator interface {
	T(key string, args ...interface{}) string
}

// Reply is one outbound chat message, optionally with inline buttons.
type Reply struct {
	Text    string
	Buttons [][]adapter.Button
}

// ActionResult answers an inline button press: Notice acknowledges the
// press itself, Replies are sent to the chat.
type ActionResult struct {
	Notice  string
	Replies []Reply
}

// Compile-time check
var _ ConversationUseCase = (*conversationUC)(nil)

// ConversationUseCase is the per-user state machine behind the chat.
// Store failures are returned as errors; every user mistake becomes a Reply.
type ConversationUseCase interface {
	HandleCommand(ctx context.Context, tgID int64, command string) ([]Reply, error)
	HandleText(ctx context.Context, tgID int64, text string) ([]Reply, error)
	HandleAction(ctx context.Context, tgID int64, data string) (*ActionResult, error)
	CurrentState(ctx context.Context, tgID int64) (*model.ConversationState, error)
}

type conversationUC struct {
	states   repository.StateRepository
	products ProductUseCase
	tr       Translator
	log      *zerolog.Logger
}

func NewConversationUseCase(states repository.StateRepository, products ProductUseCase, tr Translator, logger *zerolog.Logger) *conversationUC {
	compLog := logger.With().Str("component", "ConversationUC").Logger()
	return &conversationUC{
		states:   states,
		products: products,
		tr:       tr,
		log:      &compLog,
	}
}

func (c *conversationUC) CurrentState(ctx context.Context, tgID int64) (*model.ConversationState, error) {
	st, err := c.states.GetState(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return model.IdleState(), nil
	}
	return st, nil
}

func (c *conversationUC) HandleCommand(ctx context.Context, tgID int64, command string) ([]Reply, error) {
	defer logging.TraceDuration(c.log, "ConversationUC.HandleCommand")()

	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(command), "/")) {
	case CmdStart:
		return c.text("welcome_message"), nil

	case CmdAdd:
		if err := c.states.ClearState(ctx, tgID); err != nil {
			return nil, err
		}
		if err := c.states.SetState(ctx, tgID, &model.ConversationState{Step: model.StepAdding}); err != nil {
			return nil, err
		}
		return c.text("add_enter", "add_prompt"), nil

	case CmdStop:
		st, err := c.CurrentState(ctx, tgID)
		if err != nil {
			return nil, err
		}
		if st.Step != model.StepAdding {
			return c.text("not_understood"), nil
		}
		if err := c.states.ClearState(ctx, tgID); err != nil {
			return nil, err
		}
		return c.text("add_exit"), nil

	case CmdGetAll:
		if err := c.states.ClearState(ctx, tgID); err != nil {
			return nil, err
		}
		return c.renderAll(ctx)

	case CmdDelete:
		if err := c.states.SetState(ctx, tgID, &model.ConversationState{Step: model.StepDeletingSelect}); err != nil {
			return nil, err
		}
		return c.renderDeleteList(ctx)

	case CmdHelp:
		return c.text("help_message"), nil

	default:
		metrics.IncConversationError("unknown_command")
		return c.text("not_understood"), nil
	}
}

func (c *conversationUC) HandleText(ctx context.Context, tgID int64, text string) ([]Reply, error) {
	defer logging.TraceDuration(c.log, "ConversationUC.HandleText")()

	st, err := c.CurrentState(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if st.Step != model.StepAdding || strings.HasPrefix(strings.TrimSpace(text), "/") {
		return c.text("not_understood"), nil
	}

	p, err := c.products.Add(ctx, text)
	switch {
	case errors.Is(err, domain.ErrFormat):
		metrics.IncConversationError("format")
		return c.text("error_format"), nil
	case errors.Is(err, domain.ErrInvalidDate):
		metrics.IncConversationError("invalid_date")
		return c.text("error_invalid_date"), nil
	case err != nil:
		return nil, err
	}

	return []Reply{{
		Text:    c.tr.T("product_added", p.Name, p.ExpiresOn.Format(DateLayout)),
		Buttons: [][]adapter.Button{{c.deleteButton(p)}},
	}}, nil
}

func (c *conversationUC) HandleAction(ctx context.Context, tgID int64, data string) (*ActionResult, error) {
	defer logging.TraceDuration(c.log, "ConversationUC.HandleAction")()

	if _, err := c.products.DeleteByToken(ctx, data); err != nil {
		if errors.Is(err, domain.ErrMalformedToken) {
			metrics.IncConversationError("malformed_token")
			c.log.Warn().Int64("tg_id", tgID).Str("data", data).Msg("malformed action token")
			return &ActionResult{Notice: c.tr.T("error_action"), Replies: c.text("error_action")}, nil
		}
		return nil, err
	}

	st, err := c.CurrentState(ctx, tgID)
	if err != nil {
		return nil, err
	}
	res := &ActionResult{Notice: c.tr.T("product_deleted")}
	if st.Step == model.StepDeletingSelect {
		res.Replies, err = c.renderDeleteList(ctx)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
	res.Replies = c.text("product_deleted")
	return res, nil
}

func (c *conversationUC) renderAll(ctx context.Context) ([]Reply, error) {
	items, err := c.products.ListByExpiry(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return c.text("no_products"), nil
	}
	var b strings.Builder
	b.WriteString(c.tr.T("product_list_header"))
	for _, p := range items {
		b.WriteString("\n")
		b.WriteString(c.productLine(p))
	}
	return []Reply{{Text: b.String()}}, nil
}

func (c *conversationUC) renderDeleteList(ctx context.Context) ([]Reply, error) {
	items, err := c.products.ListByExpiry(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return c.text("no_products"), nil
	}
	rows := make([][]adapter.Button, 0, len(items))
	for _, p := range items {
		rows = append(rows, []adapter.Button{{Text: c.productLine(p), Data: EncodeDeleteToken(p.ID)}})
	}
	return []Reply{{Text: c.tr.T("delete_prompt"), Buttons: rows}}, nil
}

func (c *conversationUC) productLine(p *model.Product) string {
	return c.tr.T("product_line", p.Name, p.ExpiresOn.Format(DateLayout))
}

func (c *conversationUC) deleteButton(p *model.Product) adapter.Button {
	return adapter.Button{Text: c.tr.T("button_delete"), Data: EncodeDeleteToken(p.ID)}
}

// text turns translation keys into plain replies, one message per key.
func (c *conversationUC) text(keys ...string) []Reply {
	out := make([]Reply, 0, len(keys))
	for _, k := range keys {
		out = append(out, Reply{Text: c.tr.T(k)})
	}
	return out
}

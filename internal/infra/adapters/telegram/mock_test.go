//go:build !integration

package telegram

import (
	"context"
	"io"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-expiry-reminder/internal/domain/model"
	"telegram-expiry-reminder/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// keyTranslator echoes keys so assertions do not depend on locale text.
type keyTranslator struct{}

func (keyTranslator) T(key string, args ...interface{}) string { return key }

// ---- fake tgbotapi client ----

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
	stopped  bool
	sendErr  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Text)
	}
	return out
}

func (f *fakeAPI) callbacks() []tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, r := range f.requests {
		if cb, ok := r.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

// ---- mock conversation use case ----

type mockConversation struct {
	mu    sync.Mutex
	calls []string

	HandleCommandFunc func(ctx context.Context, tgID int64, command string) ([]usecase.Reply, error)
	HandleTextFunc    func(ctx context.Context, tgID int64, text string) ([]usecase.Reply, error)
	HandleActionFunc  func(ctx context.Context, tgID int64, data string) (*usecase.ActionResult, error)
}

var _ usecase.ConversationUseCase = (*mockConversation)(nil)

func (m *mockConversation) record(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, s)
}

func (m *mockConversation) HandleCommand(ctx context.Context, tgID int64, command string) ([]usecase.Reply, error) {
	m.record("cmd:" + command)
	if m.HandleCommandFunc != nil {
		return m.HandleCommandFunc(ctx, tgID, command)
	}
	return []usecase.Reply{{Text: "reply:" + command}}, nil
}

func (m *mockConversation) HandleText(ctx context.Context, tgID int64, text string) ([]usecase.Reply, error) {
	m.record("text:" + text)
	if m.HandleTextFunc != nil {
		return m.HandleTextFunc(ctx, tgID, text)
	}
	return []usecase.Reply{{Text: "echo:" + text}}, nil
}

func (m *mockConversation) HandleAction(ctx context.Context, tgID int64, data string) (*usecase.ActionResult, error) {
	m.record("action:" + data)
	if m.HandleActionFunc != nil {
		return m.HandleActionFunc(ctx, tgID, data)
	}
	return &usecase.ActionResult{Notice: "done", Replies: []usecase.Reply{{Text: "deleted"}}}, nil
}

func (m *mockConversation) CurrentState(ctx context.Context, tgID int64) (*model.ConversationState, error) {
	return model.IdleState(), nil
}

// ---- mock rate limiter ----

type mockLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.keys = append(m.keys, key)
	return m.allow, m.err
}

// ---- update builders ----

func textUpdate(userID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}}
}

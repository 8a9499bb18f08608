//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing/fstest"
	"time"

	"github.com/rs/zerolog"

	"telegram-expiry-reminder/internal/domain/model"
	"telegram-expiry-reminder/internal/domain/ports/adapter"
	"telegram-expiry-reminder/internal/domain/ports/repository"
	"telegram-expiry-reminder/internal/infra/i18n"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// fixedToday is the clock every test runs against.
var fixedToday = time.Date(2025, time.June, 10, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedToday }

func daysFromToday(n int) time.Time {
	return model.DateOf(fixedToday).AddDate(0, 0, n)
}

const testLocale = `
welcome_message: "welcome"
help_message: "help"
not_understood: "not understood"
add_enter: "add enter"
add_prompt: "add prompt"
add_exit: "add exit"
product_added: "added %s : %s"
error_format: "bad format"
error_invalid_date: "bad date"
error_action: "action failed"
delete_prompt: "pick one"
product_deleted: "deleted"
no_products: "no products"
product_list_header: "products:"
product_line: "%s : %s"
button_delete: "delete"
notify_today_header: "today:"
tier_days_1: "1 day:"
tier_days_3: "3 days:"
tier_days_5: "5 days:"
notify_expired: "expired %s (%s)"
`

func newTestTranslator() *i18n.Translator {
	fsys := fstest.MapFS{
		"locales/test.yaml": &fstest.MapFile{Data: []byte(testLocale)},
	}
	tr, err := i18n.NewTranslator(fsys, "test")
	if err != nil {
		panic(err)
	}
	return tr
}

// =============================
// Adapters
// =============================

// ---- Mock TelegramBotAdapter ----

type MockTelegramBot struct {
	mu   sync.Mutex
	Sent []adapter.SendMessageParams

	SendMessageFunc     func(ctx context.Context, params adapter.SendMessageParams) error
	SetMenuCommandsFunc func(ctx context.Context, commands []adapter.MenuCommand) error
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	if m.SendMessageFunc != nil {
		if err := m.SendMessageFunc(ctx, params); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, params)
	return nil
}

func (m *MockTelegramBot) SetMenuCommands(ctx context.Context, commands []adapter.MenuCommand) error {
	if m.SetMenuCommandsFunc != nil {
		return m.SetMenuCommandsFunc(ctx, commands)
	}
	return nil
}

func (m *MockTelegramBot) sentTo(chatID int64) []adapter.SendMessageParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []adapter.SendMessageParams
	for _, p := range m.Sent {
		if p.ChatID == chatID {
			out = append(out, p)
		}
	}
	return out
}

// =============================
// Repositories
// =============================

// ---- Mock ProductRepository ----

type MockProductRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*model.Product

	InsertCalls int
	DeleteCalls int

	InsertFunc  func(ctx context.Context, name string, expiresOn time.Time) (int64, error)
	ListAllFunc func(ctx context.Context) ([]*model.Product, error)
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{items: map[int64]*model.Product{}}
}

func (m *MockProductRepo) Insert(ctx context.Context, name string, expiresOn time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, name, expiresOn)
	}
	m.nextID++
	m.items[m.nextID] = &model.Product{ID: m.nextID, Name: name, ExpiresOn: expiresOn}
	return m.nextID, nil
}

func (m *MockProductRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	delete(m.items, id)
	return nil
}

func (m *MockProductRepo) ListAll(ctx context.Context) ([]*model.Product, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Product, 0, len(m.items))
	for _, p := range m.items {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// seed inserts name with an expiry offset in days from fixedToday.
// It bypasses InsertCalls so tests can count inserts made by the code under test.
func (m *MockProductRepo) seed(name string, days int) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.items[m.nextID] = &model.Product{ID: m.nextID, Name: name, ExpiresOn: daysFromToday(days)}
	return m.nextID
}

func (m *MockProductRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// ---- Mock StateRepository ----

type MockStateRepo struct {
	mu     sync.Mutex
	states map[int64]*model.ConversationState

	GetStateFunc func(ctx context.Context, tgID int64) (*model.ConversationState, error)
}

var _ repository.StateRepository = (*MockStateRepo)(nil)

func NewMockStateRepo() *MockStateRepo {
	return &MockStateRepo{states: map[int64]*model.ConversationState{}}
}

func (m *MockStateRepo) SetState(ctx context.Context, tgID int64, state *model.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.states[tgID] = &cp
	return nil
}

func (m *MockStateRepo) GetState(ctx context.Context, tgID int64) (*model.ConversationState, error) {
	if m.GetStateFunc != nil {
		return m.GetStateFunc(ctx, tgID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[tgID]
	if !ok {
		return model.IdleState(), nil
	}
	cp := *st
	return &cp, nil
}

func (m *MockStateRepo) ClearState(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, tgID)
	return nil
}

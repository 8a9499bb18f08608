//go:build !integration

package telegram

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"telegram-expiry-reminder/internal/domain/ports/adapter"
)

func TestNoopBotAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bot := NewNoopBotAdapter(&logger)

	err := bot.SendMessage(context.Background(), adapter.SendMessageParams{
		ChatID: 42,
		Text:   "milk",
		ReplyMarkup: &adapter.ReplyMarkup{
			IsInline: true,
			Buttons:  [][]adapter.Button{{{Text: "x", Data: "delete_1"}}},
		},
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"chat_id":42`, `"text":"milk"`, "delete_1", `"component":"NoopBot"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: 1, Text: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := bot.SetMenuCommands(context.Background(), []adapter.MenuCommand{{Command: "add"}}); err != nil {
		t.Errorf("SetMenuCommands: %v", err)
	}
}

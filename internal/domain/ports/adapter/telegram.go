package adapter

import "context"

// Button is a single inline keyboard button.
// Data is sent back as callback data; URL opens a link instead.
type Button struct {
	Text string `json:"text"`
	Data string `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

type ReplyMarkup struct {
	Buttons  [][]Button
	IsInline bool
}

type SendMessageParams struct {
	ChatID      int64
	Text        string
	ParseMode   string
	ReplyMarkup *ReplyMarkup
}

// MenuCommand is an entry of the bot's command menu.
type MenuCommand struct {
	Command     string
	Description string
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
	SetMenuCommands(ctx context.Context, commands []MenuCommand) error
}

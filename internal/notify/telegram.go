package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var levelEmoji = map[Level]string{
	LevelInfo:    "ℹ️",
	LevelSuccess: "✅",
	LevelWarning: "⚠️",
	LevelUrgent:  "🚨",
}

// Telegram delivers alerts to one chat through the Bot API.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram creates a Telegram notifier. It validates the token against
// the Bot API during construction.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

// Send delivers one alert. The Bot API client has no context support, so
// cancellation is only checked before the call.
func (t *Telegram) Send(ctx context.Context, a Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text := fmt.Sprintf("%s *%s*\n\n%s", levelEmoji[a.Level], escapeMarkdown(a.Title), escapeMarkdown(a.Body))
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// escapeMarkdown escapes the characters Telegram's legacy Markdown parser
// treats as formatting.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

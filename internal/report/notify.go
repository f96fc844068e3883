package report

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers a rendered report.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Telegram sends reports to one chat through the Bot API.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram connects to the Bot API with token and targets chatID. An
// empty endpoint selects tgbotapi.APIEndpoint; a nil client selects
// http.DefaultClient. The token is checked with getMe.
func NewTelegram(token, chatID, endpoint string, client *http.Client) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram.token is not set")
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram.chat_id %q: %w", chatID, err)
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	return &Telegram{bot: bot, chatID: id}, nil
}

// Notify sends text as a plain message.
func (t *Telegram) Notify(_ context.Context, text string) error {
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

// Writer prints reports instead of sending them.
type Writer struct {
	W io.Writer
}

// Notify writes text to W.
func (w Writer) Notify(_ context.Context, text string) error {
	_, err := io.WriteString(w.W, text)
	return err
}

package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Konano/IngressSojournerReminder/internal/notify"
)

// Client is a thin wrapper over the Bot API that satisfies notify.Messenger.
// It classifies "blocked by user" style failures as permanent so the retry
// policy and the scheduler can react accordingly.
type Client struct {
	bot *tgbotapi.BotAPI
}

// NewClient wraps a bot instance.
func NewClient(bot *tgbotapi.BotAPI) *Client {
	return &Client{bot: bot}
}

// classify wraps unauthorized/forbidden responses as permanent failures.
// Everything else (timeouts, rate limits, flaky transport) stays retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && (tgErr.Code == 401 || tgErr.Code == 403) {
		return notify.Permanent(err)
	}
	return err
}

// SendAlert sends a Markdown alert with the check-in button and returns the
// message id.
func (c *Client) SendAlert(ctx context.Context, chatID int64, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = signinKeyboard()
	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, classify(err)
	}
	return sent.MessageID, nil
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
	return classify(err)
}

// DeleteMessage removes a previously sent message.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return classify(err)
}

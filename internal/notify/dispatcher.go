package notify

import (
	"context"
	"fmt"

	"github.com/containrrr/shoutrrr"
	"github.com/containrrr/shoutrrr/pkg/types"
	"go.uber.org/zap"

	"github.com/Konano/IngressSojournerReminder/internal/domain"
)

const fanoutTitle = "Ingress Sojourner Reminder"

const lossText = "Sorry, you lost your Sojourner Streak. Please /start to try again."

// Messenger is the minimal messaging capability the dispatcher needs.
// telegram.Client implements it.
type Messenger interface {
	// SendAlert sends an escalation message with the check-in button and
	// returns the message id.
	SendAlert(ctx context.Context, chatID int64, text string) (int, error)
	// SendText sends a plain message.
	SendText(ctx context.Context, chatID int64, text string) error
	// DeleteMessage removes a previously sent message.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Dispatcher realizes state-machine actions as outbound messages: Telegram
// alerts with retry, plus fire-and-forget fan-out to registered channels.
type Dispatcher struct {
	msg   Messenger
	reg   *Registry
	log   *zap.Logger
	retry RetryPolicy
}

// NewDispatcher builds a dispatcher with the default retry policy.
func NewDispatcher(msg Messenger, reg *Registry, log *zap.Logger) *Dispatcher {
	return &Dispatcher{msg: msg, reg: reg, log: log, retry: DefaultRetry}
}

// alertText formats the escalation warning for a given elapsed-hour count.
func alertText(elapsed int, severity domain.Severity) string {
	body := fmt.Sprintf(
		"You have not hacked any portals in Ingress for *%d* hours, please hack immediately!", elapsed)
	if severity == domain.SeverityHigh {
		return "🔴⚠️🔴⚠️🔴\n" + body + "\n🔴⚠️🔴⚠️🔴"
	}
	return body
}

// ClearAlert deletes an outstanding alert message. Best-effort: the message
// may already be gone, so failure only shows up at debug level.
func (d *Dispatcher) ClearAlert(ctx context.Context, chatID int64, messageID int) {
	if err := d.msg.DeleteMessage(ctx, chatID, messageID); err != nil {
		d.log.Debug("delete alert failed",
			zap.Int64("chat", chatID), zap.Int("message", messageID), zap.Error(err))
	}
}

// Escalate sends a new alert, replaces any prior one, and fans the warning
// out to the chat's external channels. Returns the new alert message id.
func (d *Dispatcher) Escalate(ctx context.Context, chatID int64, prev *int, elapsed int, severity domain.Severity) (int, error) {
	text := alertText(elapsed, severity)

	var id int
	err := d.retry.Do(ctx, func() error {
		var err error
		id, err = d.msg.SendAlert(ctx, chatID, text)
		return err
	})
	if err != nil {
		return 0, err
	}

	if prev != nil {
		d.ClearAlert(ctx, chatID, *prev)
	}

	// External channels get a plain-text variant; their delivery never
	// blocks or fails the Telegram alert.
	plain := fmt.Sprintf(
		"You have not hacked any portals in Ingress for %d hours, please hack immediately!", elapsed)
	go d.fanOut(chatID, fanoutTitle, plain)

	return id, nil
}

// Expire clears the alert and delivers the final loss message. A silent
// expiry (never-acknowledged subscription) sends nothing.
func (d *Dispatcher) Expire(ctx context.Context, chatID int64, alert *int, notify bool) error {
	if alert != nil {
		d.ClearAlert(ctx, chatID, *alert)
	}
	if !notify {
		return nil
	}
	return d.retry.Do(ctx, func() error {
		return d.msg.SendText(ctx, chatID, lossText)
	})
}

// fanOut pushes a title/body pair to every channel the chat has registered.
func (d *Dispatcher) fanOut(chatID int64, title, body string) {
	urls := d.reg.List(chatID)
	if len(urls) == 0 {
		return
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		d.log.Warn("fan-out sender init failed", zap.Int64("chat", chatID), zap.Error(err))
		return
	}
	var failed int
	for _, err := range sender.Send(body, &types.Params{"title": title}) {
		if err != nil {
			failed++
			d.log.Warn("fan-out delivery failed", zap.Int64("chat", chatID), zap.Error(err))
		}
	}
	d.log.Debug("fan-out done",
		zap.Int64("chat", chatID), zap.Int("channels", len(urls)), zap.Int("failed", failed))
}

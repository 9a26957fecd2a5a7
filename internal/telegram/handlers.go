package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Konano/IngressSojournerReminder/internal/domain"
	"github.com/Konano/IngressSojournerReminder/internal/notify"
)

func chatName(chat *tgbotapi.Chat) string {
	if chat == nil {
		return ""
	}
	if chat.UserName != "" {
		return chat.UserName
	}
	return strings.TrimSpace(chat.FirstName + " " + chat.LastName)
}

func (r *Router) handleStart(ctx context.Context, chatID int64, chat *tgbotapi.Chat) {
	if _, ok := r.records.Get(chatID); ok {
		r.sendText(chatID, alreadyStartedText)
		return
	}

	msg := tgbotapi.NewMessage(chatID, welcomeText)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = signinKeyboard()
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Error("welcome message failed", zap.Int64("chat", chatID), zap.Error(err))
		return
	}

	r.records.Put(chatID, domain.NewRecord(time.Now()))
	r.log.Info("START", zap.Int64("chat", chatID), zap.String("name", chatName(chat)))
}

func (r *Router) handleCancel(ctx context.Context, chatID int64, chat *tgbotapi.Chat) {
	r.records.Delete(chatID)
	r.sendText(chatID, canceledText)
	r.log.Info("CANCEL", zap.Int64("chat", chatID), zap.String("name", chatName(chat)))
}

// handleHacked resets the streak timer. callbackID is non-empty when the
// check-in came from the alert button rather than the /hacked command.
func (r *Router) handleHacked(ctx context.Context, chatID int64, callbackID string) {
	var prevAlert *int
	ok := r.records.Mutate(chatID, func(rec domain.Record) (domain.Record, bool) {
		prevAlert = rec.Alert
		return domain.CheckedIn(time.Now()), true
	})
	if !ok {
		if callbackID != "" {
			r.answerCallback(callbackID, pleaseStartText)
		} else {
			r.sendText(chatID, pleaseStartText)
		}
		return
	}

	if callbackID != "" {
		r.answerCallback(callbackID, refreshOKText)
	} else {
		r.sendText(chatID, refreshOKText)
	}
	if prevAlert != nil {
		r.dispatcher.ClearAlert(ctx, chatID, *prevAlert)
	}
	r.log.Info("HACK", zap.Int64("chat", chatID))
}

func (r *Router) handleChannelList(ctx context.Context, chatID int64) {
	urls := r.registry.List(chatID)
	if len(urls) == 0 {
		r.sendText(chatID, noChannelText)
		return
	}
	r.sendText(chatID, "Notification channels:\n"+strings.Join(urls, "\n"))
}

func (r *Router) handleChannelAdd(ctx context.Context, chatID int64, url string) {
	if url == "" {
		r.sendHelp(chatID, needURLText)
		return
	}
	switch r.registry.Add(chatID, url) {
	case notify.AddOK:
		r.sendText(chatID, channelAddedText)
		r.log.Info("channel added", zap.Int64("chat", chatID), zap.String("url", url))
	case notify.AddLimitReached:
		r.sendText(chatID, channelLimitText)
	case notify.AddInvalidURL:
		r.sendHelp(chatID, "Invalid URL.")
	}
}

func (r *Router) handleChannelDel(ctx context.Context, chatID int64, url string) {
	if len(r.registry.List(chatID)) == 0 {
		r.sendText(chatID, noChannelText)
		return
	}
	if url == "" {
		r.sendText(chatID, needURLText)
		return
	}
	if !r.registry.Remove(chatID, url) {
		r.sendText(chatID, channelMissingText)
		return
	}
	r.sendText(chatID, channelDeletedText)
	r.log.Info("channel deleted", zap.Int64("chat", chatID), zap.String("url", url))
}

// sendHelp replies with a lead line plus the supported-protocol list.
func (r *Router) sendHelp(chatID int64, lead string) {
	msg := tgbotapi.NewMessage(chatID, lead+"\n\n"+protocolHelpText())
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("help reply failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Konano/IngressSojournerReminder/internal/notify"
	"github.com/Konano/IngressSojournerReminder/internal/store"
)

// Router wires Telegram updates to command handlers.
type Router struct {
	bot        *tgbotapi.BotAPI
	log        *zap.Logger
	records    *store.Records
	registry   *notify.Registry
	dispatcher *notify.Dispatcher
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, records *store.Records, registry *notify.Registry, dispatcher *notify.Dispatcher) *Router {
	return &Router{
		bot:        bot,
		log:        log,
		records:    records,
		registry:   registry,
		dispatcher: dispatcher,
	}
}

// HandleUpdate routes a single update to the appropriate handler. Each update
// is its own unit of work: a panic is logged and the user sees silence.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic handling update", zap.Int("update", upd.UpdateID), zap.Any("panic", rec))
		}
	}()

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.Data == "HACK" && cb.Message != nil {
			r.handleHacked(ctx, cb.Message.Chat.ID, cb.ID)
		}
		// Unknown callbacks are ignored silently.
		return
	}

	if upd.Message == nil || !upd.Message.IsCommand() {
		return
	}

	msg := upd.Message
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		r.handleStart(ctx, chatID, msg.Chat)
	case "cancel":
		r.handleCancel(ctx, chatID, msg.Chat)
	case "hacked":
		r.handleHacked(ctx, chatID, "")
	case "list":
		r.handleChannelList(ctx, chatID)
	case "add":
		r.handleChannelAdd(ctx, chatID, args)
	case "del":
		r.handleChannelDel(ctx, chatID, args)
	default:
		// Not ours; stay quiet.
	}
}

// sendText sends a best-effort plain reply.
func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("reply failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (r *Router) answerCallback(id, text string) {
	if _, err := r.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		r.log.Debug("answer callback failed", zap.Error(err))
	}
}

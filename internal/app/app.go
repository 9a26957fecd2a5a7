package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Konano/IngressSojournerReminder/internal/config"
	"github.com/Konano/IngressSojournerReminder/internal/notify"
	"github.com/Konano/IngressSojournerReminder/internal/scheduler"
	"github.com/Konano/IngressSojournerReminder/internal/store"
	"github.com/Konano/IngressSojournerReminder/internal/telegram"
)

// heartbeatInterval matches the reference deployment's uptime ping period.
const heartbeatInterval = time.Minute

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	mux     *http.ServeMux
	updates chan tgbotapi.Update

	records   *store.Records
	channels  *store.Channels
	router    *telegram.Router
	scheduler *scheduler.Scheduler
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	// All Bot API calls share one bounded-timeout HTTP client.
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint,
		&http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv, mux: mux}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting sojourner reminder",
		zap.String("mode", a.cfg.RunMode),
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("account", a.bot.Self.UserName),
	)

	records, err := store.OpenRecords(a.cfg.DataDir, a.log)
	if err != nil {
		a.log.Error("open records store failed", zap.Error(err))
		return err
	}
	channels, err := store.OpenChannels(a.cfg.DataDir, a.log)
	if err != nil {
		a.log.Error("open channels store failed", zap.Error(err))
		return err
	}
	a.records, a.channels = records, channels

	registry := notify.NewRegistry(channels)
	dispatcher := notify.NewDispatcher(telegram.NewClient(a.bot), registry, a.log)
	a.router = telegram.NewRouter(a.bot, a.log, records, registry, dispatcher)
	a.scheduler = scheduler.New(records, a.log, dispatcher)

	updCh, err := a.updateSource()
	if err != nil {
		return err
	}

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.scheduler.Run(ctx)
	if a.cfg.HeartbeatURL != "" {
		go a.heartbeat(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

// updateSource returns the inbound update channel: long polling by default,
// or a webhook endpoint mounted on the HTTP server.
func (a *App) updateSource() (tgbotapi.UpdatesChannel, error) {
	if a.cfg.RunMode != "webhook" {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		return a.bot.GetUpdatesChan(u), nil
	}

	wh, err := tgbotapi.NewWebhook(a.cfg.WebhookURL + "/webhook/" + a.bot.Token)
	if err != nil {
		return nil, err
	}
	if _, err := a.bot.Request(wh); err != nil {
		return nil, err
	}

	a.updates = make(chan tgbotapi.Update, 100)
	a.mux.HandleFunc("/webhook/"+a.bot.Token, func(w http.ResponseWriter, r *http.Request) {
		upd, err := a.bot.HandleUpdate(r)
		if err != nil {
			a.log.Warn("bad webhook update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		a.updates <- *upd
	})
	return a.updates, nil
}

// heartbeat pings the configured uptime URL once a minute.
func (a *App) heartbeat(ctx context.Context) {
	client := &http.Client{Timeout: 30 * time.Second}
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.HeartbeatURL, nil)
			if err != nil {
				a.log.Warn("heartbeat request build failed", zap.Error(err))
				continue
			}
			resp, err := client.Do(req)
			if err != nil {
				a.log.Warn("heartbeat failed", zap.Error(err))
				continue
			}
			_ = resp.Body.Close()
		}
	}
}

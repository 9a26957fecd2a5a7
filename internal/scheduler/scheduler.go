package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Konano/IngressSojournerReminder/internal/domain"
	"github.com/Konano/IngressSojournerReminder/internal/notify"
	"github.com/Konano/IngressSojournerReminder/internal/store"
)

// Notifier is the minimal interface the scheduler needs to realize
// state-machine actions. notify.Dispatcher implements it.
type Notifier interface {
	ClearAlert(ctx context.Context, chatID int64, messageID int)
	Escalate(ctx context.Context, chatID int64, prev *int, elapsed int, severity domain.Severity) (int, error)
	Expire(ctx context.Context, chatID int64, alert *int, notify bool) error
}

// Scheduler drives the reminder state machine over every record once per
// fixed interval.
type Scheduler struct {
	records  *store.Records
	log      *zap.Logger
	notifier Notifier
	interval time.Duration
	clock    func() time.Time
}

// New creates a Scheduler. The tick interval is fixed (60s).
func New(records *store.Records, log *zap.Logger, notifier Notifier) *Scheduler {
	return &Scheduler{
		records:  records,
		log:      log,
		notifier: notifier,
		interval: time.Minute,
		clock:    time.Now,
	}
}

// Run starts the loop until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick evaluates every record once. Each record is its own unit of work: a
// failure (or panic) for one chat never aborts the rest of the batch.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.clock()
	for chatID, rec := range s.records.Snapshot() {
		s.evaluate(ctx, chatID, rec, now)
	}
}

func (s *Scheduler) evaluate(ctx context.Context, chatID int64, rec domain.Record, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic evaluating record", zap.Int64("chat", chatID), zap.Any("panic", r))
		}
	}()

	d := domain.Evaluate(rec, now)
	switch d.Action {
	case domain.ActionNone:
		if d.Persist {
			s.records.Mutate(chatID, func(r domain.Record) (domain.Record, bool) {
				r.DeltaHours = d.Elapsed
				return r, true
			})
		}

	case domain.ActionClear:
		if rec.Alert != nil {
			s.notifier.ClearAlert(ctx, chatID, *rec.Alert)
		}
		s.records.Mutate(chatID, func(r domain.Record) (domain.Record, bool) {
			r.DeltaHours = d.Elapsed
			r.Alert = nil
			return r, true
		})

	case domain.ActionEscalate:
		id, err := s.notifier.Escalate(ctx, chatID, rec.Alert, d.Elapsed, d.Severity)
		if err != nil {
			if notify.IsPermanent(err) {
				s.log.Info("recipient gone, dropping record", zap.Int64("chat", chatID), zap.Error(err))
				s.records.Delete(chatID)
				return
			}
			// Leave DeltaHours untouched so the next tick retries this bucket.
			s.log.Error("escalation failed", zap.Int64("chat", chatID), zap.Error(err))
			return
		}
		s.records.Mutate(chatID, func(r domain.Record) (domain.Record, bool) {
			r.Alert = &id
			if r.CheckinAt == rec.CheckinAt {
				// No check-in raced us; advance the bucket. Otherwise keep
				// the fresh state and let the next tick clear the alert.
				r.DeltaHours = d.Elapsed
			}
			return r, true
		})
		s.log.Info("escalation sent",
			zap.Int64("chat", chatID), zap.Int("hours", d.Elapsed), zap.Int("message", id))

	case domain.ActionExpire:
		if err := s.notifier.Expire(ctx, chatID, rec.Alert, d.Notify); err != nil {
			s.log.Error("expiry notification failed", zap.Int64("chat", chatID), zap.Error(err))
		}
		s.records.Delete(chatID)
		s.log.Info("streak expired, record removed",
			zap.Int64("chat", chatID), zap.Int("hours", d.Elapsed), zap.Bool("notified", d.Notify))
	}
}

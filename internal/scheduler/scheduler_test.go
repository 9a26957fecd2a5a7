package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Konano/IngressSojournerReminder/internal/domain"
	"github.com/Konano/IngressSojournerReminder/internal/notify"
	"github.com/Konano/IngressSojournerReminder/internal/store"
)

type escalation struct {
	chat     int64
	elapsed  int
	severity domain.Severity
}

type expiry struct {
	chat     int64
	notified bool
}

type fakeNotifier struct {
	cleared     []int
	escalations []escalation
	expiries    []expiry
	escalateErr error
	nextID      int
}

func (f *fakeNotifier) ClearAlert(_ context.Context, _ int64, messageID int) {
	f.cleared = append(f.cleared, messageID)
}

func (f *fakeNotifier) Escalate(_ context.Context, chatID int64, prev *int, elapsed int, severity domain.Severity) (int, error) {
	if f.escalateErr != nil {
		return 0, f.escalateErr
	}
	if prev != nil {
		f.cleared = append(f.cleared, *prev)
	}
	f.escalations = append(f.escalations, escalation{chatID, elapsed, severity})
	f.nextID++
	return f.nextID, nil
}

func (f *fakeNotifier) Expire(_ context.Context, chatID int64, alert *int, notified bool) error {
	if alert != nil {
		f.cleared = append(f.cleared, *alert)
	}
	f.expiries = append(f.expiries, expiry{chatID, notified})
	return nil
}

func newTestScheduler(t *testing.T, fn *fakeNotifier) (*Scheduler, *store.Records) {
	t.Helper()
	records, err := store.OpenRecords(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	s := New(records, zap.NewNop(), fn)
	return s, records
}

var now = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func aged(hours, dh int) domain.Record {
	return domain.Record{CheckinAt: now.Add(-time.Duration(hours) * time.Hour).Unix(), DeltaHours: dh}
}

func TestTickEscalatesAndStoresAlertID(t *testing.T) {
	fn := &fakeNotifier{}
	s, records := newTestScheduler(t, fn)
	s.clock = func() time.Time { return now }

	old := 11
	rec := aged(32, 31)
	rec.Alert = &old
	records.Put(1, rec)

	s.tick(context.Background())

	if len(fn.escalations) != 1 {
		t.Fatalf("want 1 escalation, got %d", len(fn.escalations))
	}
	e := fn.escalations[0]
	if e.elapsed != 32 || e.severity != domain.SeverityHigh {
		t.Fatalf("escalation: %+v", e)
	}
	if len(fn.cleared) != 1 || fn.cleared[0] != 11 {
		t.Fatalf("prior alert not replaced: %v", fn.cleared)
	}

	got, _ := records.Get(1)
	if got.Alert == nil || *got.Alert != fn.nextID {
		t.Fatalf("alert id not stored: %+v", got)
	}
	if got.DeltaHours != 32 {
		t.Fatalf("bucket not advanced: %+v", got)
	}
}

func TestTickSameBucketIsIdempotent(t *testing.T) {
	fn := &fakeNotifier{}
	s, records := newTestScheduler(t, fn)
	s.clock = func() time.Time { return now }

	records.Put(1, aged(27, 27))
	s.tick(context.Background())

	if len(fn.escalations)+len(fn.expiries)+len(fn.cleared) != 0 {
		t.Fatalf("same bucket triggered actions: %+v", fn)
	}
}

func TestTickThrottledHourPersistsQuietly(t *testing.T) {
	fn := &fakeNotifier{}
	s, records := newTestScheduler(t, fn)
	s.clock = func() time.Time { return now }

	records.Put(1, aged(25, 24))
	s.tick(context.Background())

	if len(fn.escalations) != 0 {
		t.Fatal("odd hour under 30 must not escalate")
	}
	got, _ := records.Get(1)
	if got.DeltaHours != 25 {
		t.Fatalf("bucket must still advance, got %+v", got)
	}
}

func TestTickClearsStaleAlert(t *testing.T) {
	fn := &fakeNotifier{}
	s, records := newTestScheduler(t, fn)
	s.clock = func() time.Time { return now }

	id := 33
	rec := aged(2, 26) // fresh check-in happened, old alert still recorded
	rec.Alert = &id
	records.Put(1, rec)

	s.tick(context.Background())

	if len(fn.cleared) != 1 || fn.cleared[0] != 33 {
		t.Fatalf("stale alert not cleared: %v", fn.cleared)
	}
	got, _ := records.Get(1)
	if got.Alert != nil || got.DeltaHours != 2 {
		t.Fatalf("record not reset: %+v", got)
	}
}

func TestTickExpiresLostStreak(t *testing.T) {
	fn := &fakeNotifier{}
	s, records := newTestScheduler(t, fn)
	s.clock = func() time.Time { return now }

	id := 77
	rec := aged(36, 35)
	rec.Alert = &id
	records.Put(1, rec)

	s.tick(context.Background())

	if len(fn.expiries) != 1 || !fn.expiries[0].notified {
		t.Fatalf("want one notified expiry, got %+v", fn.expiries)
	}
	if _, ok := records.Get(1); ok {
		t.Fatal("expired record must be removed")
	}
}

func TestTickDropsNeverAcknowledgedSilently(t *testing.T) {
	fn := &fakeNotifier{}
	s, records := newTestScheduler(t, fn)
	s.clock = func() time.Time { return now }

	records.Put(1, aged(30, -1))
	s.tick(context.Background())

	if len(fn.expiries) != 1 || fn.expiries[0].notified {
		t.Fatalf("want one silent expiry, got %+v", fn.expiries)
	}
	if _, ok := records.Get(1); ok {
		t.Fatal("pending record must be dropped after a day")
	}
}

func TestTickRemovesBlockedRecipient(t *testing.T) {
	fn := &fakeNotifier{escalateErr: notify.Permanent(errors.New("forbidden: bot was blocked by the user"))}
	s, records := newTestScheduler(t, fn)
	s.clock = func() time.Time { return now }

	records.Put(1, aged(26, 25))
	s.tick(context.Background())

	if _, ok := records.Get(1); ok {
		t.Fatal("blocked recipient's record must be removed")
	}
}

func TestTickKeepsRecordOnTransientFailure(t *testing.T) {
	fn := &fakeNotifier{escalateErr: errors.New("timeout")}
	s, records := newTestScheduler(t, fn)
	s.clock = func() time.Time { return now }

	records.Put(1, aged(26, 25))
	s.tick(context.Background())

	got, ok := records.Get(1)
	if !ok {
		t.Fatal("transient failure must not drop the record")
	}
	if got.DeltaHours != 25 {
		t.Fatalf("bucket must stay put for a retry next tick, got %+v", got)
	}
}

func TestTickOneFailureDoesNotAbortBatch(t *testing.T) {
	fn := &fakeNotifier{escalateErr: errors.New("timeout")}
	s, records := newTestScheduler(t, fn)
	s.clock = func() time.Time { return now }

	records.Put(1, aged(26, 25)) // escalation will fail
	records.Put(2, aged(40, 39)) // expiry must still run

	s.tick(context.Background())

	if len(fn.expiries) != 1 || fn.expiries[0].chat != 2 {
		t.Fatalf("second record not processed: %+v", fn.expiries)
	}
}

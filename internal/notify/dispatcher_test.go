package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Konano/IngressSojournerReminder/internal/domain"
	"github.com/Konano/IngressSojournerReminder/internal/store"
)

type fakeMessenger struct {
	alerts  []string
	texts   []string
	deleted []int
	sendErr error
	nextID  int
}

func (f *fakeMessenger) SendAlert(_ context.Context, _ int64, text string) (int, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.alerts = append(f.alerts, text)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeMessenger) SendText(_ context.Context, _ int64, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func newTestDispatcher(t *testing.T, msg Messenger) *Dispatcher {
	t.Helper()
	channels, err := store.OpenChannels(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	d := NewDispatcher(msg, NewRegistry(channels), zap.NewNop())
	d.retry = RetryPolicy{Attempts: 3, Backoff: 0}
	return d
}

func TestEscalateReplacesPriorAlert(t *testing.T) {
	fm := &fakeMessenger{}
	d := newTestDispatcher(t, fm)

	prev := 5
	id, err := d.Escalate(context.Background(), 1, &prev, 26, domain.SeverityNormal)
	if err != nil {
		t.Fatal(err)
	}
	if id != fm.nextID {
		t.Fatalf("want id %d, got %d", fm.nextID, id)
	}
	if len(fm.deleted) != 1 || fm.deleted[0] != 5 {
		t.Fatalf("prior alert not deleted: %v", fm.deleted)
	}
	if len(fm.alerts) != 1 || !strings.Contains(fm.alerts[0], "*26*") {
		t.Fatalf("alert text: %q", fm.alerts)
	}
}

func TestEscalateSeverityDecoration(t *testing.T) {
	fm := &fakeMessenger{}
	d := newTestDispatcher(t, fm)

	if _, err := d.Escalate(context.Background(), 1, nil, 31, domain.SeverityHigh); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(fm.alerts[0], "🔴⚠️🔴⚠️🔴") {
		t.Fatalf("high severity alert missing decoration: %q", fm.alerts[0])
	}
}

func TestEscalateFailureKeepsPriorAlert(t *testing.T) {
	fm := &fakeMessenger{sendErr: errors.New("timeout")}
	d := newTestDispatcher(t, fm)

	prev := 5
	if _, err := d.Escalate(context.Background(), 1, &prev, 26, domain.SeverityNormal); err == nil {
		t.Fatal("want error")
	}
	if len(fm.deleted) != 0 {
		t.Fatal("prior alert must survive a failed replacement")
	}
}

func TestExpire(t *testing.T) {
	fm := &fakeMessenger{}
	d := newTestDispatcher(t, fm)

	alert := 9
	if err := d.Expire(context.Background(), 1, &alert, true); err != nil {
		t.Fatal(err)
	}
	if len(fm.deleted) != 1 || fm.deleted[0] != 9 {
		t.Fatalf("alert not cleared: %v", fm.deleted)
	}
	if len(fm.texts) != 1 || !strings.Contains(fm.texts[0], "lost your Sojourner Streak") {
		t.Fatalf("loss message: %q", fm.texts)
	}

	// Silent expiry sends nothing.
	fm.texts = nil
	if err := d.Expire(context.Background(), 2, nil, false); err != nil {
		t.Fatal(err)
	}
	if len(fm.texts) != 0 {
		t.Fatalf("silent expiry must not message the user: %q", fm.texts)
	}
}

package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"splitsmart/internal/amqp"
	"splitsmart/internal/log"
	"splitsmart/internal/metrics"
	"splitsmart/internal/notify"
)

type fakeMailer struct {
	mu       sync.Mutex
	sent     []string
	failFor  string
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if to == f.failFor {
		return errors.New("mailbox full")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return nil
}

type fakeActivity struct {
	mu    sync.Mutex
	kinds []notify.Kind
	err   error
}

func (f *fakeActivity) RecordActivity(_ context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, n.Kind)
	return f.err
}

func testLogger() *log.Logger {
	return log.New(log.Config{Format: log.FormatText, Output: io.Discard})
}

func notification(to ...string) notify.Notification {
	return notify.Notification{
		Kind:    notify.KindExpenseAdded,
		To:      to,
		Subject: "New expense added to Alps",
		Message: "Alice added a new expense",
		TripID:  "t1",
	}
}

func TestHandleNotificationDeliversToEveryRecipient(t *testing.T) {
	mailer := &fakeMailer{}
	activity := &fakeActivity{}
	m := metrics.New()
	w := NewNotificationWorker(mailer, activity, 2, testLogger(), m)

	err := w.HandleNotification(context.Background(), notification("a@x.io", "b@x.io", "c@x.io", "d@x.io"))
	if err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if len(mailer.sent) != 4 {
		t.Fatalf("expected 4 deliveries, got %v", mailer.sent)
	}
	if peak := mailer.peak.Load(); peak > 2 {
		t.Fatalf("concurrency limit exceeded: %d in flight", peak)
	}
	if len(activity.kinds) != 1 || activity.kinds[0] != notify.KindExpenseAdded {
		t.Fatalf("expected one activity row, got %v", activity.kinds)
	}
	if got := testutil.ToFloat64(m.Deliveries.WithLabelValues(metrics.OutcomeOK)); got != 4 {
		t.Fatalf("expected 4 ok deliveries, got %v", got)
	}
}

func TestHandleNotificationFailure(t *testing.T) {
	mailer := &fakeMailer{failFor: "b@x.io"}
	activity := &fakeActivity{}
	w := NewNotificationWorker(mailer, activity, 1, testLogger(), nil)

	err := w.HandleNotification(context.Background(), notification("a@x.io", "b@x.io"))
	if err == nil {
		t.Fatal("expected an error so the message is redelivered")
	}
	if len(activity.kinds) != 0 {
		t.Fatal("failed notifications must not be recorded as activity")
	}
}

func TestActivityFailureIsNotFatal(t *testing.T) {
	w := NewNotificationWorker(&fakeMailer{}, &fakeActivity{err: errors.New("quota")}, 1, testLogger(), nil)
	if err := w.HandleNotification(context.Background(), notification("a@x.io")); err != nil {
		t.Fatalf("activity errors should only be logged: %v", err)
	}
}

func TestHandleNotificationWithoutRecipients(t *testing.T) {
	mailer := &fakeMailer{}
	w := NewNotificationWorker(mailer, nil, 1, testLogger(), nil)
	if err := w.HandleNotification(context.Background(), notification()); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("nothing should be sent")
	}
}

type fakeConsumer struct {
	messages []notify.Notification
	err      error
}

func (f *fakeConsumer) ConsumeNotifications(ctx context.Context, _ int, handler amqp.Handler) error {
	for _, n := range f.messages {
		if err := handler(ctx, n); err != nil {
			return err
		}
	}
	return f.err
}

func TestRun(t *testing.T) {
	mailer := &fakeMailer{}
	w := NewNotificationWorker(mailer, nil, 1, testLogger(), nil)

	consumer := &fakeConsumer{messages: []notify.Notification{notification("a@x.io")}, err: context.Canceled}
	if err := w.Run(context.Background(), consumer, 10); err != nil {
		t.Fatalf("cancellation should not be an error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 delivery, got %v", mailer.sent)
	}

	boom := errors.New("channel closed")
	if err := w.Run(context.Background(), &fakeConsumer{err: boom}, 10); !errors.Is(err, boom) {
		t.Fatalf("expected consumer error, got %v", err)
	}
}

func TestLogMailer(t *testing.T) {
	m := NewLogMailer(testLogger())
	if err := m.Send(context.Background(), "a@x.io", "s", "b"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Send(ctx, "a@x.io", "s", "b"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

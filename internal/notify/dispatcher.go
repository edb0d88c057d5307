package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"splitsmart/internal/log"
	"splitsmart/internal/metrics"
)

// FailureError wraps an error returned by a Notifier.
type FailureError struct {
	Kind Kind
	Err  error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("notification %s failed: %v", e.Kind, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

// Dispatcher sends notifications in the background. A send never blocks
// the caller and its outcome is only logged and counted.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *log.Logger
	metrics  *metrics.Metrics

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewDispatcher(n Notifier, timeout time.Duration, logger *log.Logger, m *metrics.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		notifier: n,
		timeout:  timeout,
		logger:   logger.WithComponent(log.ComponentNotify),
		metrics:  m,
	}
}

// Dispatch schedules n for delivery. Notifications without recipients and
// calls after Close are skipped.
func (d *Dispatcher) Dispatch(n Notification) {
	if d.notifier == nil || len(n.To) == 0 {
		d.metrics.Notification(string(n.Kind), metrics.OutcomeSkipped)
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("Dispatcher closed, dropping notification", log.FieldNotification, string(n.Kind))
		d.metrics.Notification(string(n.Kind), metrics.OutcomeSkipped)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.Notify(ctx, n); err != nil {
			ferr := &FailureError{Kind: n.Kind, Err: err}
			d.logger.ErrorContext(ctx, "Failed to send notification",
				log.FieldNotification, string(n.Kind),
				log.FieldTripID, n.TripID,
				log.FieldRecipients, len(n.To),
				log.FieldError, ferr)
			d.metrics.Notification(string(n.Kind), metrics.OutcomeError)
			return
		}
		d.metrics.Notification(string(n.Kind), metrics.OutcomeOK)
	}()
}

// Wait blocks until every scheduled notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting notifications and waits for in-flight sends until
// ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for notifications: %w", ctx.Err())
	}
}

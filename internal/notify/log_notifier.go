package notify

import (
	"context"
	"time"

	"splitsmart/internal/log"
)

// LogNotifier stands in for an email service: it logs each notification
// after an optional delay that mimics a network round trip.
type LogNotifier struct {
	logger *log.Logger
	delay  time.Duration
}

func NewLogNotifier(logger *log.Logger, delay time.Duration) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent(log.ComponentNotify), delay: delay}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	if l.delay > 0 {
		t := time.NewTimer(l.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	l.logger.InfoContext(ctx, "Sending notification",
		log.FieldNotification, string(n.Kind),
		log.FieldRecipients, n.To,
		log.FieldTripID, n.TripID,
		"subject", n.Subject,
		"message", n.Message)
	return nil
}

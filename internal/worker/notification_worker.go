// Package worker delivers queued notifications to their recipients.
package worker

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"splitsmart/internal/amqp"
	"splitsmart/internal/log"
	"splitsmart/internal/metrics"
	"splitsmart/internal/notify"
	"splitsmart/internal/sheets"
)

// Mailer sends one email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Consumer feeds notifications to a handler until ctx is done.
type Consumer interface {
	ConsumeNotifications(ctx context.Context, prefetch int, handler amqp.Handler) error
}

// LogMailer logs emails instead of sending them.
type LogMailer struct {
	logger *log.Logger
}

func NewLogMailer(logger *log.Logger) *LogMailer {
	return &LogMailer{logger: logger.WithComponent(log.ComponentNotify)}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "Email sent", "to", to, "subject", subject, "body_length", len(body))
	return nil
}

// NotificationWorker fans a notification out to its recipients with
// bounded concurrency. Delivered notifications are optionally recorded in
// a spreadsheet activity log.
type NotificationWorker struct {
	mailer      Mailer
	activity    sheets.ActivityRecorder
	concurrency int
	logger      *log.Logger
	metrics     *metrics.Metrics
}

func NewNotificationWorker(mailer Mailer, activity sheets.ActivityRecorder, concurrency int, logger *log.Logger, m *metrics.Metrics) *NotificationWorker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &NotificationWorker{
		mailer:      mailer,
		activity:    activity,
		concurrency: concurrency,
		logger:      logger.WithComponent(log.ComponentWorker),
		metrics:     m,
	}
}

// HandleNotification delivers n to every recipient. Any failed delivery
// fails the whole notification so the broker redelivers it; recipients that
// already received it may get it again.
func (w *NotificationWorker) HandleNotification(ctx context.Context, n notify.Notification) error {
	if len(n.To) == 0 {
		w.logger.WarnContext(ctx, "Notification without recipients, skipping",
			log.FieldNotification, string(n.Kind),
			log.FieldTripID, n.TripID)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, to := range n.To {
		g.Go(func() error {
			err := w.mailer.Send(gctx, to, n.Subject, n.Message)
			w.metrics.Delivery(err)
			if err != nil {
				return fmt.Errorf("send to %s: %w", to, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.logger.ErrorContext(ctx, "Failed to deliver notification",
			log.FieldNotification, string(n.Kind),
			log.FieldTripID, n.TripID,
			log.FieldRecipients, len(n.To),
			log.FieldError, err)
		return fmt.Errorf("deliver %s: %w", n.Kind, err)
	}

	w.logger.InfoContext(ctx, "Notification delivered",
		log.FieldNotification, string(n.Kind),
		log.FieldTripID, n.TripID,
		log.FieldRecipients, len(n.To))

	if w.activity != nil {
		if err := w.activity.RecordActivity(ctx, n); err != nil {
			w.logger.WarnContext(ctx, "Failed to record activity",
				log.FieldTripID, n.TripID,
				log.FieldError, err)
		}
	}
	return nil
}

// Run consumes notifications until ctx is cancelled. Cancellation is not
// reported as an error.
func (w *NotificationWorker) Run(ctx context.Context, consumer Consumer, prefetch int) error {
	w.logger.InfoContext(ctx, "Consuming notifications",
		"concurrency", w.concurrency,
		"prefetch", prefetch)
	err := consumer.ConsumeNotifications(ctx, prefetch, w.HandleNotification)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume notifications: %w", err)
	}
	return nil
}

package backend

import (
	"context"
	"fmt"

	"splitsmart/internal/amqp"
	"splitsmart/internal/log"
	"splitsmart/internal/notify"
	"splitsmart/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create builds the snapshot store and notifier. An unreachable broker is
// not fatal: notifications fall back to the log notifier.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Cleanup: func() error { return nil }}
	var checks []ReadyFunc

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.Snapshots = repo
		checks = append(checks, repo.Ping)
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		res.Snapshots = storage.NewMemorySnapshotter()
		f.logger.InfoContext(ctx, "Initialized memory backend")
	}

	if config.Notifier == AMQPNotifier {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, notifications will only be logged", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.Notifier = client
			res.Cleanup = client.Close
			checks = append(checks, func(context.Context) error { return client.Ping() })
		}
	}
	if res.Notifier == nil {
		res.Notifier = notify.NewLogNotifier(f.logger, config.NotifyDelay)
	}

	res.Ready = func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	return res, nil
}

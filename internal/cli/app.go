package cli

import (
	"context"
	"errors"
	"fmt"

	"splitsmart/internal/backend"
	"splitsmart/internal/config"
	"splitsmart/internal/log"
	"splitsmart/internal/metrics"
	"splitsmart/internal/notify"
	"splitsmart/internal/services"
	"splitsmart/internal/store"
)

// App bundles the trip service with the backend it was built on.
type App struct {
	Trips   *services.TripService
	Metrics *metrics.Metrics
	Ready   backend.ReadyFunc
	cleanup backend.CleanupFunc
}

// OpenApp creates the configured backend, restores the saved state and
// returns a ready trip service. With offline set, notifications are only
// logged, whatever NOTIFIER says.
func OpenApp(ctx context.Context, cfg *config.Config, logger *log.Logger, offline bool) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	if offline {
		bcfg.Notifier = backend.LogNotifier
	}

	res, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	m := metrics.New()
	dispatcher := notify.NewDispatcher(res.Notifier, cfg.NotifyTimeout, logger, m)
	svc := services.NewTripService(store.New(), res.Snapshots, dispatcher, logger, m, services.Options{
		InviteLink: cfg.InviteLink,
		Currency:   cfg.Currency,
	})

	app := &App{Trips: svc, Metrics: m, Ready: res.Ready, cleanup: res.Cleanup}
	if err := svc.Load(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("load snapshot: %w", err), app.Close(ctx))
	}
	return app, nil
}

// Close drains pending notifications, closes the snapshot store and then
// the notifier.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Trips.Close(ctx), a.cleanup())
}

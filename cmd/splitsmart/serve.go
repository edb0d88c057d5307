package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"time"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"splitsmart/internal/cli"
	apphttp "splitsmart/internal/http"
)

type serveCmd struct {
	env  *env
	port string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the trip expense HTTP API" }
func (*serveCmd) Usage() string {
	return `splitsmart serve [-port <port>]

  Restores the saved ledger and serves the JSON API until SIGINT or SIGTERM.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.port, "port", "", "Listen port. Overrides PORT.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger := c.env.cfg, c.env.logger
	port := cfg.Port
	if c.port != "" {
		port = c.port
	}

	ctx, stop := cli.GracefulShutdown(ctx, logger)
	defer stop()

	app, err := cli.OpenApp(ctx, cfg, logger, false)
	if err != nil {
		return fail(err)
	}

	srv := apphttp.NewServer(":"+port, app.Trips, logger, app.Metrics, apphttp.Options{
		RateLimit:      cfg.RateLimit,
		RequestTimeout: cfg.RequestTimeout,
		Ready:          app.Ready,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting splitsmart server", "port", port, "backend", cfg.DataBackend, "notifier", cfg.Notifier)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), app.Close(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		return subcommands.ExitFailure
	}
	logger.Info("Server stopped gracefully")
	return subcommands.ExitSuccess
}

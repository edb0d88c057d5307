// Command splitsmart-worker consumes trip notifications from AMQP and
// delivers them to members.
package main

import (
	"context"
	"fmt"
	"os"

	"splitsmart/internal/amqp"
	"splitsmart/internal/cli"
	"splitsmart/internal/log"
	"splitsmart/internal/metrics"
	"splitsmart/internal/sheets"
	gsheet "splitsmart/internal/sheets/google"
	"splitsmart/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting splitsmart-worker")

	ctx, stop := cli.GracefulShutdown(context.Background(), logger)
	defer stop()

	// Activity logging to Google Sheets is optional.
	var activity sheets.ActivityRecorder
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			ActivitySheet:      cfg.GoogleActivitySheet,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			return fmt.Errorf("init google sheets: %w", err)
		}
		activity = client
		logger.Info("Google Sheets activity log enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID or credentials provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("init amqp client: %w", err)
	}
	defer amqpClient.Close()

	w := worker.NewNotificationWorker(worker.NewLogMailer(logger), activity, cfg.WorkerConcurrency, logger, metrics.New())
	if err := w.Run(ctx, amqpClient, cfg.WorkerPrefetch); err != nil {
		return err
	}
	logger.Info("Worker stopped gracefully")
	return nil
}

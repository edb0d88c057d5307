package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"splitsmart/internal/config"
	"splitsmart/internal/core"
)

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("NOTIFIER", "log")
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("DataBackend = %q", cfg.DataBackend)
	}

	t.Setenv("DATA_BACKEND", "postgres")
	if _, err := LoadAndValidateConfig(); err == nil || !strings.Contains(err.Error(), "invalid data backend") {
		t.Errorf("expected data backend error, got %v", err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Load()
	cfg.DataBackend = "sqlite"
	cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "ledger.db")
	cfg.Notifier = "amqp"
	cfg.LogFormat = "json"
	return cfg
}

func TestOpenAppRestoresState(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	logger := SetupLogger(cfg, "test")

	app, err := OpenApp(ctx, cfg, logger, true)
	if err != nil {
		t.Fatalf("OpenApp: %v", err)
	}
	if _, err := app.Trips.CreateTrip(ctx, core.Trip{
		ID:        "t1",
		Name:      "Lisbon",
		CreatedBy: "a",
		Members:   []core.Member{{ID: "a", Name: "Alice"}},
	}); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if err := app.Ready(ctx); err != nil {
		t.Errorf("Ready: %v", err)
	}
	if err := app.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenApp(ctx, cfg, logger, true)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close(ctx)
	if _, err := reopened.Trips.Trip("t1"); err != nil {
		t.Errorf("trip not restored: %v", err)
	}
}

func TestOpenAppRejectsInvalidBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataBackend = "postgres"
	if _, err := OpenApp(context.Background(), cfg, SetupLogger(cfg, "test"), true); err == nil {
		t.Fatal("expected error")
	}
}

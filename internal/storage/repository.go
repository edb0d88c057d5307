package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"splitsmart/internal/core"

	_ "modernc.org/sqlite"
)

// SnapshotKey is the fixed key under which the whole ledger is stored.
const SnapshotKey = "trip-storage"

// Snapshotter persists and restores the whole ledger state.
type Snapshotter interface {
	Load(ctx context.Context) (core.State, error)
	Save(ctx context.Context, st core.State) error
	Close() error
}

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load returns the stored state, or an empty state when nothing was saved yet.
func (r *SQLiteRepository) Load(ctx context.Context) (core.State, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE key = ?`, SnapshotKey).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return core.State{Trips: []core.Trip{}}, nil
	}
	if err != nil {
		return core.State{}, fmt.Errorf("load snapshot: %w", err)
	}

	var st core.State
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		return core.State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if st.Trips == nil {
		st.Trips = []core.Trip{}
	}
	return st, nil
}

// Save replaces the stored state and bumps its version.
func (r *SQLiteRepository) Save(ctx context.Context, st core.State) error {
	if st.Trips == nil {
		st.Trips = []core.Trip{}
	}
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, body, version, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			body = excluded.body,
			version = snapshots.version + 1,
			updated_at = excluded.updated_at`,
		SnapshotKey, string(body), r.now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved to SQLite",
		"key", SnapshotKey,
		"trips", len(st.Trips),
		"bytes", len(body))
	return nil
}

// Version returns how many times the snapshot has been written.
func (r *SQLiteRepository) Version(ctx context.Context) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx, `SELECT version FROM snapshots WHERE key = ?`, SnapshotKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read snapshot version: %w", err)
	}
	return v, nil
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"splitsmart/internal/core"
)

// MemorySnapshotter keeps the encoded snapshot in process memory. It encodes
// on every save so it exercises the same format as the SQLite repository.
type MemorySnapshotter struct {
	mu    sync.Mutex
	body  []byte
	saves int
}

func NewMemorySnapshotter() *MemorySnapshotter {
	return &MemorySnapshotter{}
}

func (m *MemorySnapshotter) Load(_ context.Context) (core.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.body == nil {
		return core.State{Trips: []core.Trip{}}, nil
	}
	var st core.State
	if err := json.Unmarshal(m.body, &st); err != nil {
		return core.State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return st, nil
}

func (m *MemorySnapshotter) Save(_ context.Context, st core.State) error {
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.body = body
	m.saves++
	return nil
}

// Saves returns the number of successful saves.
func (m *MemorySnapshotter) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemorySnapshotter) Close() error { return nil }

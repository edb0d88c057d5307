package backend

import (
	"context"

	"splitsmart/internal/notify"
	"splitsmart/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ReadyFunc reports whether the backing services are reachable.
type ReadyFunc func(ctx context.Context) error

// Result contains the selected snapshot store and notifier.
type Result struct {
	Snapshots storage.Snapshotter
	Notifier  notify.Notifier
	Ready     ReadyFunc
	// Cleanup releases the notifier. Snapshots are closed by their owner.
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// BackendType represents the snapshot store kind
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// NotifierType represents the notification transport
type NotifierType string

const (
	LogNotifier  NotifierType = "log"
	AMQPNotifier NotifierType = "amqp"
)

func (nt NotifierType) IsValid() bool {
	return nt == LogNotifier || nt == AMQPNotifier
}

package backend

import (
	"context"

	"moneyflow/internal/amqp"
	"moneyflow/internal/kv"
	"moneyflow/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the store the ledger persists to and, when AMQP is
// configured, the event client.
type BackendResult struct {
	Store   kv.Store
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Publisher returns the event client as a services.Publisher, or nil when
// events are disabled. A nil *amqp.Client is never wrapped in the interface.
func (r *BackendResult) Publisher() services.Publisher {
	if r.Events == nil {
		return nil
	}
	return r.Events
}

// Close runs Cleanup once; further calls are no-ops.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	cleanup := r.Cleanup
	r.Cleanup = nil
	return cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Events, shared by every backend; empty URL disables them
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// RequireEvents makes an unreachable broker fatal instead of a warning.
	RequireEvents bool
}

// BackendType represents the type of backend
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

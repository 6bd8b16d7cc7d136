package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"moneyflow/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	result, err := NewFactory(discardLogger()).CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer result.Close()

	if result.Publisher() != nil {
		t.Fatal("expected no publisher without AMQP URL")
	}
	if err := result.Store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, found, err := result.Store.Get(ctx, "k"); err != nil || !found || v != "v" {
		t.Fatalf("Get = %q, %v, %v", v, found, err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	result, err := NewFactory(discardLogger()).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if err := result.Store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := result.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := result.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "unknown type", config: Config{Type: "sheets"}},
		{name: "sqlite without path", config: Config{Type: SQLiteBackend}},
		{name: "required events without url", config: Config{Type: MemoryBackend, RequireEvents: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFactory(discardLogger()).CreateBackend(context.Background(), tt.config); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/ledger.db",
		AMQPURL:      "amqp://localhost/",
		AMQPExchange: "ex",
		AMQPQueue:    "q",
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "/tmp/ledger.db" || cfg.AMQPQueue != "q" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

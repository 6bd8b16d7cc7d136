package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "moneyflow.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSQLiteStoreGetMissing(t *testing.T) {
	s, _ := newTestStore(t)
	v, found, err := s.Get(context.Background(), "goals")
	if err != nil || found || v != "" {
		t.Fatalf("expected missing key, got v=%q found=%v err=%v", v, found, err)
	}
}

func TestSQLiteStoreSetOverwrites(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if err := s.Set(ctx, "transactions", "[]"); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := s.Set(ctx, "transactions", `[{"id":"1"}]`); err != nil {
		t.Fatalf("second set: %v", err)
	}

	v, found, err := s.Get(ctx, "transactions")
	if err != nil || !found || v != `[{"id":"1"}]` {
		t.Fatalf("unexpected value: v=%q found=%v err=%v", v, found, err)
	}

	n, err := s.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one key, got %d (err=%v)", n, err)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	if err := s.Set(ctx, "goals", `[{"id":"g"}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	v, found, err := reopened.Get(ctx, "goals")
	if err != nil || !found || v != `[{"id":"g"}]` {
		t.Fatalf("value lost across reopen: v=%q found=%v err=%v", v, found, err)
	}
}

func TestSQLiteStoreGetAfterClose(t *testing.T) {
	s, _ := newTestStore(t)
	s.Close()
	if _, _, err := s.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error on closed database")
	}
}

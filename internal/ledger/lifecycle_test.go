package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"moneyflow/internal/core"
	"moneyflow/internal/kv"
)

func TestInitWritesEmptyCollections(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	l := NewLifecycle(kv.NewAdapter(store), TransactionsKey, GoalsKey)

	if l.State() != Uninitialized {
		t.Fatalf("expected uninitialized, got %s", l.State())
	}
	if err := l.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if l.State() != Initialized {
		t.Fatalf("expected initialized, got %s", l.State())
	}
	for _, key := range []string{TransactionsKey, GoalsKey} {
		v, found, _ := store.Get(ctx, key)
		if !found || v != "[]" {
			t.Fatalf("%s: expected [], got %q (found=%v)", key, v, found)
		}
	}
}

func TestInitTwiceKeepsExistingData(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	r := newTestRepository(store)

	if err := r.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	mustAddTx(t, r, 70, "x", core.Income, "2024-01-01", "")
	if err := r.Init(ctx); err != nil {
		t.Fatalf("second init: %v", err)
	}

	// A fresh lifecycle over the same store must not overwrite either.
	r2 := newTestRepository(store)
	if err := r2.Init(ctx); err != nil {
		t.Fatalf("init on fresh repository: %v", err)
	}
	txs, err := r2.ListTransactions(ctx)
	if err != nil || len(txs) != 1 {
		t.Fatalf("expected populated collection to survive init, got %v (err=%v)", txs, err)
	}
}

func TestInitIsNoOpOnceInitialized(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	l := NewLifecycle(kv.NewAdapter(store), TransactionsKey, GoalsKey)
	if err := l.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	store.failGet.Store(true)
	if err := l.Init(ctx); err != nil {
		t.Fatalf("initialized lifecycle must not touch the store: %v", err)
	}
}

func TestInitFailureLeavesUninitialized(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	store.failSet.Store(true)
	r := newTestRepository(store)

	err := r.Init(ctx)
	if !errors.Is(err, core.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if r.State() != Uninitialized {
		t.Fatalf("expected uninitialized after failure, got %s", r.State())
	}

	store.failSet.Store(false)
	if err := r.Init(ctx); err != nil {
		t.Fatalf("retry init: %v", err)
	}
	if r.State() != Initialized {
		t.Fatalf("expected initialized after retry")
	}
}

func TestOperationsAutoInitialize(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	r := newTestRepository(store)

	goals, err := r.ListGoals(ctx)
	if err != nil || len(goals) != 0 {
		t.Fatalf("expected empty goals, got %v (err=%v)", goals, err)
	}
	if r.State() != Initialized {
		t.Fatalf("list must initialize the ledger")
	}
	if v, found, _ := store.Get(ctx, TransactionsKey); !found || v != "[]" {
		t.Fatalf("auto-init must create the transactions collection, got %q", v)
	}
}

func TestWithoutAutoInitRequiresExplicitInit(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.AutoInit = false
	r := NewRepository(newFlakyStore(), cfg)

	if _, err := r.ListTransactions(ctx); !errors.Is(err, core.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	_, err := r.AddGoal(ctx, core.NewGoal{
		Title: "x", TargetAmount: decimal.NewFromInt(1), Deadline: core.NewDate(2025, 1, 1),
	})
	if !errors.Is(err, core.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}

	if err := r.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := r.ListTransactions(ctx); err != nil {
		t.Fatalf("list after init: %v", err)
	}
}

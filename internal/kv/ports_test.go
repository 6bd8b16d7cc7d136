package kv

import (
	"context"
	"errors"
	"testing"

	"moneyflow/internal/core"
)

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(context.Context, string, string) error         { return f.err }

func TestAdapterWrapsFailures(t *testing.T) {
	cause := errors.New("io failure")
	a := NewAdapter(failingStore{err: cause})

	_, _, err := a.Get(context.Background(), "goals")
	var se *core.StorageError
	if !errors.As(err, &se) || se.Op != "get" || se.Key != "goals" || !errors.Is(err, cause) {
		t.Fatalf("unexpected get error: %v", err)
	}

	err = a.Set(context.Background(), "goals", "[]")
	if !errors.As(err, &se) || se.Op != "set" || !errors.Is(err, core.ErrStorage) {
		t.Fatalf("unexpected set error: %v", err)
	}
}

func TestAdapterDoesNotDoubleWrap(t *testing.T) {
	inner := &core.StorageError{Op: "get", Key: "inner", Err: errors.New("x")}
	a := NewAdapter(failingStore{err: inner})
	_, _, err := a.Get(context.Background(), "outer")
	if err != inner {
		t.Fatalf("expected inner storage error unchanged, got %v", err)
	}
}

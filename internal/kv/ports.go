// Package kv defines the durable key-value byte store the ledger persists
// its collection snapshots into.
package kv

import (
	"context"
	"errors"

	"moneyflow/internal/core"
)

// Store is a durable key-value store holding whole serialized collections.
// Set must replace the value atomically: a concurrent Get observes either the
// previous or the new value, never a mix.
type Store interface {
	// Get returns the value under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Adapter wraps a Store and reports every failure as a *core.StorageError.
type Adapter struct {
	store Store
}

func NewAdapter(store Store) *Adapter {
	return &Adapter{store: store}
}

// Get reads key from the underlying store.
func (a *Adapter) Get(ctx context.Context, key string) (string, bool, error) {
	value, found, err := a.store.Get(ctx, key)
	if err != nil {
		return "", false, storageError("get", key, err)
	}
	return value, found, nil
}

// Set writes key to the underlying store.
func (a *Adapter) Set(ctx context.Context, key, value string) error {
	if err := a.store.Set(ctx, key, value); err != nil {
		return storageError("set", key, err)
	}
	return nil
}

func storageError(op, key string, err error) error {
	var se *core.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &core.StorageError{Op: op, Key: key, Err: err}
}

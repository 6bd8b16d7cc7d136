package ledger

import (
	"context"
	"fmt"
	"sync/atomic"

	"moneyflow/internal/kv"
)

// State is the initialization state of a ledger.
type State int32

const (
	Uninitialized State = iota
	Initialized
)

func (s State) String() string {
	if s == Initialized {
		return "initialized"
	}
	return "uninitialized"
}

// Lifecycle makes sure the store holds both collections before first use.
//
// There is no lock around the transition. Concurrent callers may each run the
// check-then-set; a race on an absent key writes the same empty snapshot twice.
type Lifecycle struct {
	store *kv.Adapter
	keys  []string
	state atomic.Int32
}

func NewLifecycle(store *kv.Adapter, keys ...string) *Lifecycle {
	return &Lifecycle{store: store, keys: keys}
}

// Init writes an empty snapshot under every absent key and leaves present
// keys untouched. It is a no-op once the lifecycle is initialized. On failure
// the state stays Uninitialized so the caller can retry.
func (l *Lifecycle) Init(ctx context.Context) error {
	if l.State() == Initialized {
		return nil
	}
	for _, key := range l.keys {
		_, found, err := l.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("init %s: %w", key, err)
		}
		if found {
			continue
		}
		if err := l.store.Set(ctx, key, emptySnapshot); err != nil {
			return fmt.Errorf("init %s: %w", key, err)
		}
	}
	l.state.Store(int32(Initialized))
	return nil
}

func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

// Package ledger owns the transaction and goal collections. Each collection
// is stored as one JSON snapshot; every write is a read-modify-write of the
// whole snapshot.
package ledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"moneyflow/internal/core"
	"moneyflow/internal/kv"
)

// Config tunes a Repository. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// AutoInit runs Init as a guard at the top of every operation. When false,
	// operations before an explicit Init fail with core.ErrNotInitialized.
	AutoInit bool

	// Now stamps goal creation times.
	Now func() time.Time

	// NewID generates record ids.
	NewID func() (string, error)
}

func DefaultConfig() Config {
	return Config{
		AutoInit: true,
		Now:      time.Now,
		NewID:    newUUIDv7,
	}
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}

// Repository is the single owner of the ledger collections in a process.
//
// Writes to one collection are serialized by a per-collection mutex, so two
// concurrent adds never lose a record. Reads take no lock and always see a
// whole snapshot. Two processes sharing one store are not coordinated.
type Repository struct {
	store     *kv.Adapter
	lifecycle *Lifecycle
	config    Config

	txMu   sync.Mutex
	goalMu sync.Mutex
}

func NewRepository(store kv.Store, config Config) *Repository {
	def := DefaultConfig()
	if config.Now == nil {
		config.Now = def.Now
	}
	if config.NewID == nil {
		config.NewID = def.NewID
	}
	adapter := kv.NewAdapter(store)
	return &Repository{
		store:     adapter,
		lifecycle: NewLifecycle(adapter, TransactionsKey, GoalsKey),
		config:    config,
	}
}

// Init prepares the store for first use. It is idempotent.
func (r *Repository) Init(ctx context.Context) error {
	return r.lifecycle.Init(ctx)
}

// State reports whether the ledger has been initialized.
func (r *Repository) State() State {
	return r.lifecycle.State()
}

func (r *Repository) ready(ctx context.Context) error {
	if r.config.AutoInit {
		return r.lifecycle.Init(ctx)
	}
	if r.lifecycle.State() != Initialized {
		return core.ErrNotInitialized
	}
	return nil
}

// AddTransaction validates and appends a new transaction and returns its id.
func (r *Repository) AddTransaction(ctx context.Context, in core.NewTransaction) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	if err := r.ready(ctx); err != nil {
		return "", err
	}

	id, err := r.config.NewID()
	if err != nil {
		return "", err
	}

	r.txMu.Lock()
	defer r.txMu.Unlock()

	txs, err := r.loadTransactions(ctx)
	if err != nil {
		return "", err
	}
	txs = append(txs, core.Transaction{
		ID:          id,
		Amount:      in.Amount,
		Description: in.Description,
		Type:        in.Type,
		Date:        strings.TrimSpace(in.Date),
		Category:    in.Category,
	})

	snapshot, err := encodeTransactions(txs)
	if err != nil {
		return "", err
	}
	if err := r.store.Set(ctx, TransactionsKey, snapshot); err != nil {
		return "", fmt.Errorf("save transactions: %w", err)
	}
	return id, nil
}

// ListTransactions returns all transactions, most recent date first. Equal
// dates keep insertion order. Dates that no longer parse sort last.
func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	txs, err := r.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}

	type keyed struct {
		at time.Time
		tx core.Transaction
	}
	rows := make([]keyed, len(txs))
	for i, t := range txs {
		at, _ := t.OccurredAt()
		rows[i] = keyed{at: at, tx: t}
	}
	slices.SortStableFunc(rows, func(a, b keyed) int {
		return b.at.Compare(a.at)
	})
	for i := range rows {
		txs[i] = rows[i].tx
	}
	return txs, nil
}

// AddGoal validates and appends a new goal and returns its id.
func (r *Repository) AddGoal(ctx context.Context, in core.NewGoal) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	if err := r.ready(ctx); err != nil {
		return "", err
	}

	id, err := r.config.NewID()
	if err != nil {
		return "", err
	}

	r.goalMu.Lock()
	defer r.goalMu.Unlock()

	goals, err := r.loadGoals(ctx)
	if err != nil {
		return "", err
	}
	goals = append(goals, core.Goal{
		ID:            id,
		Title:         in.Title,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		Deadline:      in.Deadline,
		CreatedAt:     r.config.Now().UTC(),
	})

	snapshot, err := encodeGoals(goals)
	if err != nil {
		return "", err
	}
	if err := r.store.Set(ctx, GoalsKey, snapshot); err != nil {
		return "", fmt.Errorf("save goals: %w", err)
	}
	return id, nil
}

// ListGoals returns all goals, soonest deadline first. Equal deadlines keep
// insertion order.
func (r *Repository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	goals, err := r.loadGoals(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(goals, func(a, b core.Goal) int {
		return cmp.Compare(a.Deadline.Unix(), b.Deadline.Unix())
	})
	return goals, nil
}

// loadTransactions reads the stored sequence in insertion order. A key
// cleared after init reads as an empty collection.
func (r *Repository) loadTransactions(ctx context.Context) ([]core.Transaction, error) {
	snapshot, found, err := r.store.Get(ctx, TransactionsKey)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if !found {
		return []core.Transaction{}, nil
	}
	txs, err := decodeTransactions(snapshot)
	if err != nil {
		return nil, &core.StorageError{Op: "decode", Key: TransactionsKey, Err: err}
	}
	return txs, nil
}

func (r *Repository) loadGoals(ctx context.Context) ([]core.Goal, error) {
	snapshot, found, err := r.store.Get(ctx, GoalsKey)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	if !found {
		return []core.Goal{}, nil
	}
	goals, err := decodeGoals(snapshot)
	if err != nil {
		return nil, &core.StorageError{Op: "decode", Key: GoalsKey, Err: err}
	}
	return goals, nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"moneyflow/internal/amqp"
	"moneyflow/internal/cache"
	"moneyflow/internal/core"
	"moneyflow/internal/ledger"
	applog "moneyflow/internal/log"
	"moneyflow/internal/stats"
)

const monthlyCacheKey = "all"

// Publisher announces ledger changes to other processes.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
}

// Config tunes the statistics cache.
type Config struct {
	CacheSize int
	CacheTTL  time.Duration
}

func DefaultConfig() Config {
	return Config{
		CacheSize: 64,
		CacheTTL:  5 * time.Minute,
	}
}

// LedgerService is the entry point callers use: it records transactions and
// goals, derives statistics and announces changes.
type LedgerService struct {
	repo      *ledger.Repository
	publisher Publisher
	logger    *applog.Logger
	events    *applog.StructuredLogger

	// gen counts transaction writes; a statistic computed under an older
	// generation is not cached.
	mu         sync.Mutex
	gen        uint64
	monthly    cache.Cache[[]core.MonthlyStatistic]
	categories cache.Cache[[]core.CategoryStatistic]
}

// NewLedgerService wires a repository with an optional publisher. A nil
// logger logs through slog's default handler.
func NewLedgerService(repo *ledger.Repository, publisher Publisher, cfg Config, logger *applog.Logger) *LedgerService {
	if logger == nil {
		logger = applog.New(applog.Config{Handler: slog.Default().Handler()})
	}
	logger = logger.WithComponent(applog.ComponentLedger)
	return &LedgerService{
		repo:       repo,
		publisher:  publisher,
		logger:     logger,
		events:     applog.NewStructuredLogger(logger),
		monthly:    cache.NewLRUCache[[]core.MonthlyStatistic](1, cfg.CacheTTL),
		categories: cache.NewLRUCache[[]core.CategoryStatistic](cfg.CacheSize, cfg.CacheTTL),
	}
}

// Caches returns the statistics caches so a cache.Manager can sweep them.
func (s *LedgerService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.monthly, s.categories}
}

// Init prepares the store. Safe to call repeatedly.
func (s *LedgerService) Init(ctx context.Context) error {
	if err := s.repo.Init(ctx); err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	s.logger.DebugContext(ctx, "Ledger initialized", applog.FieldOperation, applog.OpInit)
	return nil
}

// State reports the ledger initialization state.
func (s *LedgerService) State() ledger.State {
	return s.repo.State()
}

// AddTransaction stores a transaction, drops cached statistics and publishes
// a TransactionCreated event.
func (s *LedgerService) AddTransaction(ctx context.Context, in core.NewTransaction) (string, error) {
	id, err := s.repo.AddTransaction(ctx, in)
	if err != nil {
		return "", err
	}
	s.invalidate()

	s.events.LogTransactionCreated(ctx, id, in.Amount.String(), in.Type.String(), in.Category)
	tx := core.Transaction{Date: in.Date}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.TransactionCreated, id, tx.Month()))

	return id, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

// AddGoal stores a goal and publishes a GoalCreated event.
func (s *LedgerService) AddGoal(ctx context.Context, in core.NewGoal) (string, error) {
	id, err := s.repo.AddGoal(ctx, in)
	if err != nil {
		return "", err
	}

	s.events.LogGoalCreated(ctx, id, in.TargetAmount.String())
	s.publish(ctx, amqp.NewLedgerEvent(amqp.GoalCreated, id, ""))

	return id, nil
}

func (s *LedgerService) ListGoals(ctx context.Context) ([]core.Goal, error) {
	return s.repo.ListGoals(ctx)
}

// Balance returns total income minus total expense.
func (s *LedgerService) Balance(ctx context.Context) (decimal.Decimal, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return stats.Balance(txs), nil
}

// MonthlyStatistics returns the full month-by-month rollup, newest first.
func (s *LedgerService) MonthlyStatistics(ctx context.Context) ([]core.MonthlyStatistic, error) {
	if cached, ok := s.monthly.Get(monthlyCacheKey); ok {
		return slices.Clone(cached), nil
	}

	gen := s.generation()
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	result := stats.MonthlyStatistics(txs)
	s.store(gen, func() { s.monthly.Set(monthlyCacheKey, slices.Clone(result)) })
	return result, nil
}

// CategoryStatistics returns the per-category rollup of one month.
func (s *LedgerService) CategoryStatistics(ctx context.Context, year, month int) ([]core.CategoryStatistic, error) {
	if month < 1 || month > 12 {
		return nil, &core.ValidationError{Field: "month", Err: core.ErrInvalidPeriod}
	}
	key := stats.MonthKey(year, month)
	if cached, ok := s.categories.Get(key); ok {
		return slices.Clone(cached), nil
	}

	gen := s.generation()
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	result := stats.CategoryStatistics(txs, year, month)
	s.logger.DebugContext(ctx, "Category statistics computed",
		applog.NewFields().WithPeriod(year, month).WithOperation(applog.OpAggregate).ToSlice()...)
	s.store(gen, func() { s.categories.Set(key, slices.Clone(result)) })
	return result, nil
}

// GoalProjections projects every goal as of today, soonest deadline first.
func (s *LedgerService) GoalProjections(ctx context.Context, today core.Date) ([]core.GoalProjection, error) {
	goals, err := s.repo.ListGoals(ctx)
	if err != nil {
		return nil, err
	}
	return stats.ProjectAll(goals, today), nil
}

// Overview loads both collections concurrently and returns the balance, the
// monthly rollup and goal projections ranked by progress.
func (s *LedgerService) Overview(ctx context.Context, today core.Date) (core.Overview, error) {
	var (
		txs   []core.Transaction
		goals []core.Goal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.repo.ListTransactions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = s.repo.ListGoals(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Overview{}, err
	}

	return core.Overview{
		Balance:          stats.Balance(txs),
		Months:           stats.MonthlyStatistics(txs),
		Goals:            stats.ProjectAll(stats.RankByProgress(goals), today),
		TransactionCount: len(txs),
	}, nil
}

func (s *LedgerService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// store runs set only if no transaction was written since gen was read.
func (s *LedgerService) store(gen uint64, set func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		set()
	}
}

// Invalidate drops cached statistics. Processes that share a store with a
// writer call it when they learn of a write they did not make.
func (s *LedgerService) Invalidate() {
	s.invalidate()
}

func (s *LedgerService) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.monthly.Clear()
	s.categories.Clear()
}

// publish is best effort: the record is already stored, so a broker outage
// is logged and does not fail the caller.
func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.events.LogError(ctx, "Failed to publish ledger event", err,
			applog.ComponentAMQP, applog.OpPublish,
			applog.NewFields().WithRecordID(event.ID))
	}
}

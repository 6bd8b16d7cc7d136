package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"moneyflow/internal/amqp"
	"moneyflow/internal/core"
	"moneyflow/internal/kv/memory"
	"moneyflow/internal/ledger"
	applog "moneyflow/internal/log"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event *amqp.LedgerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T, pub Publisher) (*LedgerService, *memory.Store) {
	t.Helper()
	store := memory.New()
	repo := ledger.NewRepository(store, ledger.DefaultConfig())
	logger := applog.New(applog.Config{Output: io.Discard})
	return NewLedgerService(repo, pub, DefaultConfig(), logger), store
}

func addTx(t *testing.T, s *LedgerService, amount int64, typ core.TransactionType, date, category string) string {
	t.Helper()
	id, err := s.AddTransaction(context.Background(), core.NewTransaction{
		Amount:      decimal.NewFromInt(amount),
		Description: "entry",
		Type:        typ,
		Date:        date,
		Category:    category,
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	return id
}

func TestAddTransactionPublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	s, _ := newTestService(t, pub)

	id := addTx(t, s, 100, core.Income, "2024-03-15", "salary")

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Kind != amqp.TransactionCreated || ev.ID != id || ev.Month != "2024-03" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	var buf bytes.Buffer
	repo := ledger.NewRepository(memory.New(), ledger.DefaultConfig())
	s := NewLedgerService(repo, pub, DefaultConfig(), applog.New(applog.Config{Output: &buf}))

	id := addTx(t, s, 100, core.Income, "2024-03-15", "")

	logged := buf.String()
	if !strings.Contains(logged, "record_id="+id) || !strings.Contains(logged, "broker down") {
		t.Fatalf("expected publish failure logged with record id, got %s", logged)
	}

	txs, err := s.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected stored transaction, got %d", len(txs))
	}
}

func TestAddGoalPublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	s, _ := newTestService(t, pub)

	id, err := s.AddGoal(context.Background(), core.NewGoal{
		Title:        "Bike",
		TargetAmount: decimal.NewFromInt(500),
		Deadline:     core.NewDate(2024, 12, 31),
	})
	if err != nil {
		t.Fatalf("AddGoal: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != amqp.GoalCreated || pub.events[0].ID != id {
		t.Fatalf("unexpected events %+v", pub.events)
	}
}

func TestValidationErrorSkipsPublish(t *testing.T) {
	pub := &fakePublisher{}
	s, _ := newTestService(t, pub)

	_, err := s.AddTransaction(context.Background(), core.NewTransaction{
		Amount:      decimal.Zero,
		Description: "nothing",
		Type:        core.Expense,
		Date:        "2024-03-15",
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events, got %d", len(pub.events))
	}
}

func TestMonthlyStatisticsCacheInvalidatedOnWrite(t *testing.T) {
	s, _ := newTestService(t, nil)
	ctx := context.Background()

	addTx(t, s, 100, core.Income, "2024-03-15", "")
	first, err := s.MonthlyStatistics(ctx)
	if err != nil {
		t.Fatalf("MonthlyStatistics: %v", err)
	}
	if len(first) != 1 || !first[0].TotalIncome.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected stats %+v", first)
	}
	if s.monthly.Size() != 1 {
		t.Fatalf("expected cached monthly stats")
	}

	addTx(t, s, 40, core.Expense, "2024-03-20", "")
	if s.monthly.Size() != 0 {
		t.Fatalf("expected cache cleared after write")
	}

	second, err := s.MonthlyStatistics(ctx)
	if err != nil {
		t.Fatalf("MonthlyStatistics: %v", err)
	}
	if !second[0].TotalExpense.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("stale stats %+v", second)
	}
}

func TestStaleGenerationIsNotCached(t *testing.T) {
	s, _ := newTestService(t, nil)

	gen := s.generation()
	s.invalidate()
	s.store(gen, func() { s.monthly.Set(monthlyCacheKey, nil) })

	if s.monthly.Size() != 0 {
		t.Fatalf("expected stale result to be dropped")
	}
}

func TestCategoryStatistics(t *testing.T) {
	s, _ := newTestService(t, nil)
	ctx := context.Background()

	addTx(t, s, 50, core.Expense, "2024-03-02", "food")
	addTx(t, s, 30, core.Expense, "2024-03-09", "food")
	addTx(t, s, 200, core.Income, "2024-03-01", "salary")
	addTx(t, s, 99, core.Expense, "2024-04-01", "food")

	got, err := s.CategoryStatistics(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("CategoryStatistics: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %+v", got)
	}
	if got[0].Category != "salary" || got[1].Category != "food" {
		t.Fatalf("unexpected order %+v", got)
	}
	if !got[1].TotalExpense.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("food total = %s, want 80", got[1].TotalExpense)
	}
}

func TestCategoryStatisticsRejectsBadMonth(t *testing.T) {
	s, _ := newTestService(t, nil)

	for _, month := range []int{0, 13, -1} {
		_, err := s.CategoryStatistics(context.Background(), 2024, month)
		if !errors.Is(err, core.ErrValidation) || !errors.Is(err, core.ErrInvalidPeriod) {
			t.Fatalf("month %d: expected invalid period, got %v", month, err)
		}
	}
}

func TestBalance(t *testing.T) {
	s, _ := newTestService(t, nil)

	addTx(t, s, 300, core.Income, "2024-01-10", "")
	addTx(t, s, 120, core.Expense, "2024-02-10", "")

	got, err := s.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("balance = %s, want 180", got)
	}
}

func TestOverview(t *testing.T) {
	s, _ := newTestService(t, nil)
	ctx := context.Background()

	addTx(t, s, 1000, core.Income, "2024-01-10", "")
	addTx(t, s, 250, core.Expense, "2024-02-10", "")
	for _, g := range []core.NewGoal{
		{Title: "Low", TargetAmount: decimal.NewFromInt(100), CurrentAmount: decimal.NewFromInt(10), Deadline: core.NewDate(2024, 6, 1)},
		{Title: "High", TargetAmount: decimal.NewFromInt(100), CurrentAmount: decimal.NewFromInt(90), Deadline: core.NewDate(2024, 12, 1)},
	} {
		if _, err := s.AddGoal(ctx, g); err != nil {
			t.Fatalf("AddGoal: %v", err)
		}
	}

	ov, err := s.Overview(ctx, core.NewDate(2024, 3, 1))
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if !ov.Balance.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("balance = %s, want 750", ov.Balance)
	}
	if ov.TransactionCount != 2 || len(ov.Months) != 2 {
		t.Fatalf("unexpected overview %+v", ov)
	}
	if len(ov.Goals) != 2 || ov.Goals[0].Goal.Title != "High" {
		t.Fatalf("expected goals ranked by progress, got %+v", ov.Goals)
	}
}

func TestOverviewStorageError(t *testing.T) {
	s, store := newTestService(t, nil)
	ctx := context.Background()

	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := store.Set(ctx, ledger.GoalsKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := s.Overview(ctx, core.NewDate(2024, 3, 1)); !errors.Is(err, core.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestGoalProjectionsKeepDeadlineOrder(t *testing.T) {
	s, _ := newTestService(t, nil)
	ctx := context.Background()

	for _, g := range []core.NewGoal{
		{Title: "Later", TargetAmount: decimal.NewFromInt(100), Deadline: core.NewDate(2024, 12, 1)},
		{Title: "Sooner", TargetAmount: decimal.NewFromInt(100), Deadline: core.NewDate(2024, 4, 1)},
	} {
		if _, err := s.AddGoal(ctx, g); err != nil {
			t.Fatalf("AddGoal: %v", err)
		}
	}

	got, err := s.GoalProjections(ctx, core.NewDate(2024, 3, 1))
	if err != nil {
		t.Fatalf("GoalProjections: %v", err)
	}
	if got[0].Goal.Title != "Sooner" || got[0].DaysLeft != 31 {
		t.Fatalf("unexpected projections %+v", got)
	}
}

package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"moneyflow/internal/amqp"
	"moneyflow/internal/core"
	applog "moneyflow/internal/log"
)

// Ledger is the read side of services.LedgerService the worker needs.
type Ledger interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
	MonthlyStatistics(ctx context.Context) ([]core.MonthlyStatistic, error)
	GoalProjections(ctx context.Context, today core.Date) ([]core.GoalProjection, error)
	Invalidate()
}

// Summary is what the worker reports after each event.
type Summary struct {
	Balance decimal.Decimal
	Month   core.MonthlyStatistic
	// GoalsBehind counts goals past their deadline and not yet funded.
	GoalsBehind int
}

// SummaryWorker recomputes headline figures whenever another process
// announces a ledger change.
type SummaryWorker struct {
	ledger Ledger
	logger *applog.Logger
	now    func() time.Time
}

func NewSummaryWorker(ledger Ledger, logger *applog.Logger) *SummaryWorker {
	return &SummaryWorker{
		ledger: ledger,
		logger: logger.WithComponent(applog.ComponentWorker),
		now:    time.Now,
	}
}

// HandleEvent is an amqp.Handler. A returned error requeues the event.
func (w *SummaryWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		applog.FieldOperation, applog.OpConsume,
		applog.FieldRecordKind, string(event.Kind),
		applog.FieldRecordID, event.ID)

	// the writer lives in another process, so cached figures are stale
	w.ledger.Invalidate()

	month := event.Month
	if month == "" {
		month = w.now().Format("2006-01")
	}
	if _, err := w.Summarize(ctx, month); err != nil {
		return fmt.Errorf("summarize after %s %s: %w", event.Kind, event.ID, err)
	}
	return nil
}

// Summarize computes and logs the balance, the totals of month (YYYY-MM)
// and how many goals are overdue.
func (w *SummaryWorker) Summarize(ctx context.Context, month string) (Summary, error) {
	balance, err := w.ledger.Balance(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("balance: %w", err)
	}
	months, err := w.ledger.MonthlyStatistics(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("monthly statistics: %w", err)
	}
	projections, err := w.ledger.GoalProjections(ctx, core.DateOf(w.now()))
	if err != nil {
		return Summary{}, fmt.Errorf("goal projections: %w", err)
	}

	summary := Summary{
		Balance: balance,
		Month: core.MonthlyStatistic{
			Month:        month,
			TotalIncome:  decimal.Zero,
			TotalExpense: decimal.Zero,
		},
	}
	for _, m := range months {
		if m.Month == month {
			summary.Month = m
			break
		}
	}
	for _, p := range projections {
		if p.DaysLeft < 0 && p.Remaining.IsPositive() {
			summary.GoalsBehind++
		}
	}

	w.logger.InfoContext(ctx, "Ledger summary",
		applog.FieldOperation, applog.OpAggregate,
		applog.FieldBalance, summary.Balance.String(),
		applog.FieldMonth, month,
		"month_income", summary.Month.TotalIncome.String(),
		"month_expense", summary.Month.TotalExpense.String(),
		"month_net", summary.Month.Net().String(),
		"goals_behind", summary.GoalsBehind)

	return summary, nil
}

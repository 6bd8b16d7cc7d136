// Package stats derives balances, rollups and goal projections from ledger
// records. Every function is pure: no storage access and no clock reads.
package stats

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"moneyflow/internal/core"
)

// Balance returns the sum of income amounts minus the sum of expense amounts.
func Balance(txs []core.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			balance = balance.Add(t.Amount)
		case core.Expense:
			balance = balance.Sub(t.Amount)
		}
	}
	return balance
}

// MonthlyStatistics groups transactions by the YYYY-MM prefix of their date,
// most recent month first. Months without transactions are absent.
func MonthlyStatistics(txs []core.Transaction) []core.MonthlyStatistic {
	byMonth := make(map[string]*core.MonthlyStatistic)
	for _, t := range txs {
		month := t.Month()
		stat, ok := byMonth[month]
		if !ok {
			stat = &core.MonthlyStatistic{Month: month, TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
			byMonth[month] = stat
		}
		if t.Type == core.Income {
			stat.TotalIncome = stat.TotalIncome.Add(t.Amount)
		} else {
			stat.TotalExpense = stat.TotalExpense.Add(t.Amount)
		}
	}

	out := make([]core.MonthlyStatistic, 0, len(byMonth))
	for _, stat := range byMonth {
		out = append(out, *stat)
	}
	slices.SortFunc(out, func(a, b core.MonthlyStatistic) int {
		return cmp.Compare(b.Month, a.Month)
	})
	return out
}

// MonthKey formats year and month as the YYYY-MM prefix used for grouping.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// CategoryStatistics rolls up the transactions dated in the given year and
// month by category. Transactions without a category form one group with an
// empty name. Groups are ordered by total flow descending, then by name.
func CategoryStatistics(txs []core.Transaction, year, month int) []core.CategoryStatistic {
	key := MonthKey(year, month)
	byCategory := make(map[string]*core.CategoryStatistic)
	for _, t := range txs {
		if t.Month() != key {
			continue
		}
		stat, ok := byCategory[t.Category]
		if !ok {
			stat = &core.CategoryStatistic{Category: t.Category, TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
			byCategory[t.Category] = stat
		}
		if t.Type == core.Income {
			stat.TotalIncome = stat.TotalIncome.Add(t.Amount)
		} else {
			stat.TotalExpense = stat.TotalExpense.Add(t.Amount)
		}
	}

	out := make([]core.CategoryStatistic, 0, len(byCategory))
	for _, stat := range byCategory {
		stat.Type = core.Expense
		if stat.TotalIncome.GreaterThan(stat.TotalExpense) {
			stat.Type = core.Income
		}
		out = append(out, *stat)
	}
	slices.SortFunc(out, func(a, b core.CategoryStatistic) int {
		flowA := a.TotalIncome.Add(a.TotalExpense)
		flowB := b.TotalIncome.Add(b.TotalExpense)
		if c := flowB.Cmp(flowA); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

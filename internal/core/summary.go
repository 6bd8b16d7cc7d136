package core

import "github.com/shopspring/decimal"

// MonthlyStatistic is the income/expense rollup of one calendar month.
type MonthlyStatistic struct {
	Month        string // YYYY-MM
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
}

// Net returns income minus expense for the month.
func (m MonthlyStatistic) Net() decimal.Decimal {
	return m.TotalIncome.Sub(m.TotalExpense)
}

// CategoryStatistic is the rollup of one category within a month. An empty
// Category is the uncategorized group.
type CategoryStatistic struct {
	Category     string
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Type         TransactionType // dominant flow of the category
}

// GoalProjection holds the derived progress figures of a goal.
type GoalProjection struct {
	Goal              Goal
	ProgressPercent   decimal.Decimal
	Remaining         decimal.Decimal
	DaysLeft          int
	DailyPaceRequired decimal.Decimal
}

// Overview combines the headline figures shown on the home screen.
type Overview struct {
	Balance          decimal.Decimal
	Months           []MonthlyStatistic
	Goals            []GoalProjection
	TransactionCount int
}

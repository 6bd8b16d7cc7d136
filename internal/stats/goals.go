package stats

import (
	"slices"

	"github.com/shopspring/decimal"

	"moneyflow/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Progress returns current/target as a percentage. It is not clamped and
// exceeds 100 for overfunded goals.
func Progress(g core.Goal) decimal.Decimal {
	if g.TargetAmount.IsZero() {
		return decimal.Zero
	}
	return g.CurrentAmount.Mul(hundred).Div(g.TargetAmount)
}

// Project computes the progress figures of g as seen on the calendar date
// today. DaysLeft is negative once the deadline has passed; the daily pace
// divides by at least one day.
func Project(g core.Goal, today core.Date) core.GoalProjection {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	daysLeft := today.DaysUntil(g.Deadline)
	divisor := int64(max(daysLeft, 1))

	return core.GoalProjection{
		Goal:              g,
		ProgressPercent:   Progress(g),
		Remaining:         remaining,
		DaysLeft:          daysLeft,
		DailyPaceRequired: remaining.Div(decimal.NewFromInt(divisor)).Ceil(),
	}
}

// ProjectAll projects every goal, keeping the input order.
func ProjectAll(goals []core.Goal, today core.Date) []core.GoalProjection {
	out := make([]core.GoalProjection, len(goals))
	for i, g := range goals {
		out[i] = Project(g, today)
	}
	return out
}

// RankByProgress returns a copy of goals ordered by progress, highest first.
// Goals with equal progress keep their relative order.
func RankByProgress(goals []core.Goal) []core.Goal {
	out := slices.Clone(goals)
	slices.SortStableFunc(out, func(a, b core.Goal) int {
		return Progress(b).Cmp(Progress(a))
	})
	return out
}

package http

import (
	"encoding/json"
	"time"

	"moneyflow/internal/core"
)

type idResponse struct {
	ID string `json:"id"`
}

type transactionResponse struct {
	ID          string      `json:"id"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	Date        string      `json:"date"`
	Category    string      `json:"category,omitempty"`
}

func newTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(txs))
	for i, t := range txs {
		out[i] = transactionResponse{
			ID:          t.ID,
			Amount:      number(t.Amount),
			Description: t.Description,
			Type:        t.Type.String(),
			Date:        t.Date,
			Category:    t.Category,
		}
	}
	return out
}

type goalResponse struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	TargetAmount  json.Number `json:"target_amount"`
	CurrentAmount json.Number `json:"current_amount"`
	Deadline      string      `json:"deadline"`
	CreatedAt     string      `json:"created_at"`
}

func newGoalResponse(g core.Goal) goalResponse {
	return goalResponse{
		ID:            g.ID,
		Title:         g.Title,
		TargetAmount:  number(g.TargetAmount),
		CurrentAmount: number(g.CurrentAmount),
		Deadline:      g.Deadline.String(),
		CreatedAt:     g.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func newGoalResponses(goals []core.Goal) []goalResponse {
	out := make([]goalResponse, len(goals))
	for i, g := range goals {
		out[i] = newGoalResponse(g)
	}
	return out
}

type projectionResponse struct {
	Goal              goalResponse `json:"goal"`
	ProgressPercent   json.Number  `json:"progress_percent"`
	Remaining         json.Number  `json:"remaining"`
	DaysLeft          int          `json:"days_left"`
	DailyPaceRequired json.Number  `json:"daily_pace_required"`
}

func newProjectionResponses(ps []core.GoalProjection) []projectionResponse {
	out := make([]projectionResponse, len(ps))
	for i, p := range ps {
		out[i] = projectionResponse{
			Goal:              newGoalResponse(p.Goal),
			ProgressPercent:   percent(p.ProgressPercent),
			Remaining:         number(p.Remaining),
			DaysLeft:          p.DaysLeft,
			DailyPaceRequired: number(p.DailyPaceRequired),
		}
	}
	return out
}

type monthlyResponse struct {
	Month        string      `json:"month"`
	TotalIncome  json.Number `json:"total_income"`
	TotalExpense json.Number `json:"total_expense"`
	Net          json.Number `json:"net"`
}

func newMonthlyResponses(ms []core.MonthlyStatistic) []monthlyResponse {
	out := make([]monthlyResponse, len(ms))
	for i, m := range ms {
		out[i] = monthlyResponse{
			Month:        m.Month,
			TotalIncome:  number(m.TotalIncome),
			TotalExpense: number(m.TotalExpense),
			Net:          number(m.Net()),
		}
	}
	return out
}

type categoryResponse struct {
	Category     string      `json:"category"`
	TotalIncome  json.Number `json:"total_income"`
	TotalExpense json.Number `json:"total_expense"`
	Type         string      `json:"type"`
}

func newCategoryResponses(cs []core.CategoryStatistic) []categoryResponse {
	out := make([]categoryResponse, len(cs))
	for i, c := range cs {
		out[i] = categoryResponse{
			Category:     c.Category,
			TotalIncome:  number(c.TotalIncome),
			TotalExpense: number(c.TotalExpense),
			Type:         c.Type.String(),
		}
	}
	return out
}

type balanceResponse struct {
	Balance json.Number `json:"balance"`
}

type overviewResponse struct {
	Balance          json.Number          `json:"balance"`
	TransactionCount int                  `json:"transaction_count"`
	Months           []monthlyResponse    `json:"months"`
	Goals            []projectionResponse `json:"goals"`
}

type stateResponse struct {
	State string `json:"state"`
}

package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"moneyflow/internal/core"
)

// Storage keys of the two collections.
const (
	TransactionsKey = "transactions"
	GoalsKey        = "goals"
)

const emptySnapshot = "[]"

// transactionRecord is the persisted shape of a transaction. Amounts stay
// json.Number so they are decoded exactly, never through float64.
type transactionRecord struct {
	ID          string      `json:"id"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	Date        string      `json:"date"`
	Category    string      `json:"category,omitempty"`
}

type goalRecord struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	TargetAmount  json.Number `json:"target_amount"`
	CurrentAmount json.Number `json:"current_amount"`
	Deadline      string      `json:"deadline"`
	CreatedAt     string      `json:"created_at"`
}

func encodeTransactions(txs []core.Transaction) (string, error) {
	records := make([]transactionRecord, len(txs))
	for i, t := range txs {
		records[i] = transactionRecord{
			ID:          t.ID,
			Amount:      json.Number(t.Amount.String()),
			Description: t.Description,
			Type:        t.Type.String(),
			Date:        t.Date,
			Category:    t.Category,
		}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode transactions: %w", err)
	}
	return string(b), nil
}

func decodeTransactions(snapshot string) ([]core.Transaction, error) {
	var records []transactionRecord
	if err := json.Unmarshal([]byte(snapshot), &records); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	txs := make([]core.Transaction, len(records))
	for i, r := range records {
		amount, err := decimal.NewFromString(r.Amount.String())
		if err != nil {
			return nil, fmt.Errorf("decode transaction %s amount: %w", r.ID, err)
		}
		txs[i] = core.Transaction{
			ID:          r.ID,
			Amount:      amount,
			Description: r.Description,
			Type:        core.TransactionType(r.Type),
			Date:        r.Date,
			Category:    r.Category,
		}
	}
	return txs, nil
}

func encodeGoals(goals []core.Goal) (string, error) {
	records := make([]goalRecord, len(goals))
	for i, g := range goals {
		records[i] = goalRecord{
			ID:            g.ID,
			Title:         g.Title,
			TargetAmount:  json.Number(g.TargetAmount.String()),
			CurrentAmount: json.Number(g.CurrentAmount.String()),
			Deadline:      g.Deadline.String(),
			CreatedAt:     g.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode goals: %w", err)
	}
	return string(b), nil
}

func decodeGoals(snapshot string) ([]core.Goal, error) {
	var records []goalRecord
	if err := json.Unmarshal([]byte(snapshot), &records); err != nil {
		return nil, fmt.Errorf("decode goals: %w", err)
	}
	goals := make([]core.Goal, len(records))
	for i, r := range records {
		target, err := decimal.NewFromString(r.TargetAmount.String())
		if err != nil {
			return nil, fmt.Errorf("decode goal %s target: %w", r.ID, err)
		}
		current, err := decimal.NewFromString(r.CurrentAmount.String())
		if err != nil {
			return nil, fmt.Errorf("decode goal %s current: %w", r.ID, err)
		}
		deadline, err := parseDeadline(r.Deadline)
		if err != nil {
			return nil, fmt.Errorf("decode goal %s deadline: %w", r.ID, err)
		}
		createdAt, err := core.ParseTimestamp(r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("decode goal %s created_at: %w", r.ID, err)
		}
		goals[i] = core.Goal{
			ID:            r.ID,
			Title:         r.Title,
			TargetAmount:  target,
			CurrentAmount: current,
			Deadline:      deadline,
			CreatedAt:     createdAt,
		}
	}
	return goals, nil
}

// parseDeadline accepts a plain date or, for snapshots written by older
// clients, a full timestamp whose date part is kept.
func parseDeadline(s string) (core.Date, error) {
	if d, err := core.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := core.ParseTimestamp(s)
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(t), nil
}

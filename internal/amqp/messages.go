package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names what happened in the ledger.
type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	GoalCreated        EventKind = "goal.created"
)

func (k EventKind) IsValid() bool {
	return k == TransactionCreated || k == GoalCreated
}

// LedgerEvent is a lightweight notification that a record was added.
// Consumers read the record itself from the ledger.
type LedgerEvent struct {
	Kind      EventKind `json:"kind"`
	ID        string    `json:"id"`
	Month     string    `json:"month,omitempty"` // YYYY-MM of a transaction date
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind EventKind, id, month string) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		ID:        id,
		Month:     month,
		Timestamp: time.Now().UTC(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Kind.IsValid() {
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.ID == "" {
		return nil, fmt.Errorf("event without id")
	}
	return &e, nil
}

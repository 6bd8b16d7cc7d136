package amqp

import (
	"context"
	"errors"
	"testing"
)

type recordingAck struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (r *recordingAck) Ack(bool) error { r.acked = true; return nil }

func (r *recordingAck) Nack(_ bool, requeue bool) error {
	r.nacked = true
	r.requeued = requeue
	return nil
}

func TestSettle(t *testing.T) {
	valid, err := NewLedgerEvent(TransactionCreated, "tx-1", "2024-01").ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	tests := []struct {
		name        string
		body        []byte
		handlerErr  error
		wantAck     bool
		wantRequeue bool
		wantHandled bool
	}{
		{name: "handled", body: valid, wantAck: true, wantHandled: true},
		{name: "handler failure requeues", body: valid, handlerErr: errors.New("down"), wantRequeue: true, wantHandled: true},
		{name: "malformed body dropped", body: []byte("{"), wantRequeue: false},
		{name: "unknown kind dropped", body: []byte(`{"kind":"account.closed","id":"x"}`), wantRequeue: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &recordingAck{}
			handled := false
			settle(context.Background(), ack, tt.body, func(_ context.Context, e *LedgerEvent) error {
				handled = true
				if e.ID != "tx-1" || e.Month != "2024-01" {
					t.Errorf("unexpected event: %+v", e)
				}
				return tt.handlerErr
			})
			if handled != tt.wantHandled {
				t.Errorf("handled = %v, want %v", handled, tt.wantHandled)
			}
			if ack.acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", ack.acked, tt.wantAck)
			}
			if !tt.wantAck && (!ack.nacked || ack.requeued != tt.wantRequeue) {
				t.Errorf("nack/requeue = %v/%v, want true/%v", ack.nacked, ack.requeued, tt.wantRequeue)
			}
		})
	}
}

func TestLedgerEventFromJSONRejectsMissingID(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte(`{"kind":"goal.created"}`)); err == nil {
		t.Fatalf("expected error for event without id")
	}
	e, err := LedgerEventFromJSON([]byte(`{"kind":"goal.created","id":"g-1"}`))
	if err != nil || e.Kind != GoalCreated {
		t.Fatalf("unexpected decode: %+v %v", e, err)
	}
}

package webhook

import (
	"context"
	"encoding/json"
	"testing"
)

func TestHandle_UnknownTypeIsAcknowledged(t *testing.T) {
	var s Service
	if err := s.handle(context.Background(), &Event{ID: "evt_1", Type: "customer.updated"}); err != nil {
		t.Fatalf("unknown event types must be acknowledged, got %v", err)
	}
}

func TestHandle_RejectsMalformedPayload(t *testing.T) {
	var s Service
	err := s.handle(context.Background(), &Event{
		ID:      "evt_1",
		Type:    EventTypeChargeFailed,
		Payload: json.RawMessage(`{"charge_id": `),
	})
	if err == nil {
		t.Fatal("expected an error for a malformed payload")
	}
}

func TestProcess_RejectsEventWithoutID(t *testing.T) {
	var s Service
	if err := s.Process(context.Background(), InboundEvent{Type: EventTypeChargeFailed}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if err := s.Process(context.Background(), InboundEvent{ID: "evt_1"}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

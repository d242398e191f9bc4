// Package webhookapi receives asynchronous gateway events. The endpoint is
// platform wide: events carry no tenant header, the reconciler resolves the
// tenant from the referenced transaction.
package webhookapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dojoware/collect/internal/api"
	"github.com/dojoware/collect/internal/timeutil"
	"github.com/dojoware/collect/internal/webhook"
)

// Processor is the slice of the reconciler this API needs.
type Processor interface {
	Process(ctx context.Context, inbound webhook.InboundEvent) error
	Unprocessed(ctx context.Context) ([]*webhook.Event, error)
}

type Server struct {
	service Processor
}

func NewServer(service Processor) Server {
	return Server{service: service}
}

func (s Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/gateway", s.receive)
}

// RegisterAdminRoutes mounts the operator surface, outside the org scope
// middleware. Upstream routing must restrict it to platform operators.
func (s Server) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/webhooks/unprocessed", s.unprocessed)
}

// receive acknowledges with 200 only after the event is fully processed.
// Processing failures answer 5xx so the gateway redelivers; the persisted
// event row makes the redelivery idempotent.
func (s Server) receive(w http.ResponseWriter, r *http.Request) {
	var event webhook.InboundEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		api.WriteError(w, api.NewError("INVALID_BODY", http.StatusBadRequest, "could not decode event"))
		return
	}

	if err := s.service.Process(r.Context(), event); err != nil {
		switch {
		case errors.Is(err, webhook.ErrInvalidEvent):
			api.WriteError(w, api.NewError("INVALID_EVENT", http.StatusBadRequest, err.Error()))
		case errors.Is(err, webhook.ErrUnknownTransaction):
			// Acknowledged: redelivering cannot make the transaction appear.
			api.WriteJSON(w, receiptResponse{Received: true, Note: err.Error()}, http.StatusOK)
		default:
			api.WriteError(w, api.NewError("PROCESSING_FAILED", http.StatusInternalServerError, "event processing failed"))
		}
		return
	}

	api.WriteJSON(w, receiptResponse{Received: true}, http.StatusOK)
}

// unprocessed lists persisted events that never finished processing, so an
// operator can inspect what a crashed run left behind before replaying the
// events against the receive endpoint.
func (s Server) unprocessed(w http.ResponseWriter, r *http.Request) {
	events, err := s.service.Unprocessed(r.Context())
	if err != nil {
		api.WriteError(w, err)
		return
	}

	resp := make([]eventResponse, 0, len(events))
	for _, event := range events {
		resp = append(resp, toEventResponse(event))
	}
	api.WriteJSON(w, resp, http.StatusOK)
}

type receiptResponse struct {
	Received bool   `json:"received"`
	Note     string `json:"note,omitempty"`
}

type eventResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	ReceivedAt timeutil.DateTime `json:"received_at"`
	Error      *string           `json:"error,omitempty"`
}

func toEventResponse(event *webhook.Event) eventResponse {
	return eventResponse{
		ID:         event.ID,
		Type:       event.Type,
		Payload:    event.Payload,
		ReceivedAt: event.ReceivedAt,
		Error:      event.Error,
	}
}

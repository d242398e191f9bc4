// Package memberapi exposes the tenant's member directory.
package memberapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/dojoware/collect/internal/api"
	"github.com/dojoware/collect/internal/member"
	"github.com/dojoware/collect/internal/page"
)

// Directory is the slice of the member service this API needs.
type Directory interface {
	Members(ctx context.Context, orgID string, pag page.Pagination) (page.Page[*member.Member], error)
	Member(ctx context.Context, id, orgID string) (*member.Member, error)
	ClearPaymentProblem(ctx context.Context, id, orgID string) error
}

type Server struct {
	service Directory
}

func NewServer(service Directory) Server {
	return Server{service: service}
}

func (s Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /members", s.list)
	mux.HandleFunc("GET /members/{id}", s.get)
	mux.HandleFunc("DELETE /members/{id}/payment-problem", s.clearPaymentProblem)
}

type memberResponse struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	GatewayCustomerID    *string   `json:"gateway_customer_id,omitempty"`
	PaymentProblem       bool      `json:"payment_problem"`
	PaymentProblemReason *string   `json:"payment_problem_reason,omitempty"`
}

type memberPageResponse struct {
	Records      []memberResponse `json:"records"`
	TotalRecords int              `json:"total_records"`
	TotalPages   int              `json:"total_pages"`
	Page         int              `json:"page"`
	Size         int              `json:"size"`
}

func (s Server) list(w http.ResponseWriter, r *http.Request) {
	pageNumber, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("size"))

	members, err := s.service.Members(r.Context(), api.OrgID(r.Context()), page.NewPagination(pageNumber, pageSize))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	resp := memberPageResponse{
		Records:      make([]memberResponse, 0, len(members.Records)),
		TotalRecords: members.TotalRecords,
		TotalPages:   members.TotalPages,
		Page:         members.Number,
		Size:         members.Size,
	}
	for _, m := range members.Records {
		resp.Records = append(resp.Records, toResponse(m))
	}
	api.WriteJSON(w, resp, http.StatusOK)
}

func (s Server) get(w http.ResponseWriter, r *http.Request) {
	m, err := s.service.Member(r.Context(), r.PathValue("id"), api.OrgID(r.Context()))
	if err != nil {
		writeMemberError(w, err)
		return
	}
	api.WriteJSON(w, toResponse(m), http.StatusOK)
}

// clearPaymentProblem removes the follow-up flag after the tenant settled
// the failed collection with the member out of band.
func (s Server) clearPaymentProblem(w http.ResponseWriter, r *http.Request) {
	orgID := api.OrgID(r.Context())
	if _, err := s.service.Member(r.Context(), r.PathValue("id"), orgID); err != nil {
		writeMemberError(w, err)
		return
	}
	if err := s.service.ClearPaymentProblem(r.Context(), r.PathValue("id"), orgID); err != nil {
		api.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeMemberError(w http.ResponseWriter, err error) {
	if errors.Is(err, member.ErrNotFound) {
		api.WriteError(w, api.NewError("NOT_FOUND", http.StatusNotFound, "member not found"))
		return
	}
	api.WriteError(w, err)
}

func toResponse(m *member.Member) memberResponse {
	return memberResponse{
		ID:                   m.ID,
		Name:                 m.Name,
		Email:                m.Email,
		GatewayCustomerID:    m.GatewayCustomerID,
		PaymentProblem:       m.PaymentProblem,
		PaymentProblemReason: m.PaymentProblemReason,
	}
}

// Package sepaapi exposes manual batch creation and SEPA file export.
package sepaapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dojoware/collect/internal/api"
	"github.com/dojoware/collect/internal/collection"
	"github.com/dojoware/collect/internal/org"
	"github.com/dojoware/collect/internal/sepa"
	"github.com/dojoware/collect/internal/timeutil"
)

// OrgSource resolves the tenant whose creditor identity goes on the file.
type OrgSource interface {
	Org(ctx context.Context, id string) (*org.Org, error)
}

// BatchService is the slice of the collection orchestrator this API needs.
type BatchService interface {
	Batches(ctx context.Context, orgID string) ([]*collection.Batch, error)
	Batch(ctx context.Context, id, orgID string) (*collection.Batch, error)
	CreateManualBatches(ctx context.Context, executionDate timeutil.Date, orgFilter []string) ([]*collection.Batch, error)
	ExportItems(ctx context.Context, batchID, orgID string) ([]collection.ExportItem, error)
	MarkExported(ctx context.Context, batchID, orgID string) error
}

type Server struct {
	orgService        OrgSource
	collectionService BatchService
	validate          *validator.Validate
}

func NewServer(orgService OrgSource, collectionService BatchService) Server {
	return Server{
		orgService:        orgService,
		collectionService: collectionService,
		validate:          validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /sepa/batches", s.list)
	mux.HandleFunc("POST /sepa/batches", s.create)
	mux.HandleFunc("GET /sepa/batches/{id}", s.get)
	mux.HandleFunc("GET /sepa/batches/{id}/xml", s.export)
}

// RegisterAdminRoutes mounts the platform wide surface, outside the org
// scope middleware. Upstream routing must restrict it to platform
// operators.
func (s Server) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/sepa/batches", s.adminCreate)
}

type createBatchRequest struct {
	// CollectionDate is the requested debit date, "2006-01-02". Defaults to
	// today when omitted.
	CollectionDate string `json:"collection_date" validate:"omitempty,datetime=2006-01-02"`
}

type adminCreateBatchRequest struct {
	CollectionDate string `json:"collection_date" validate:"omitempty,datetime=2006-01-02"`
	// OrgIDs narrows the run to the listed tenants; empty means every
	// tenant with outstanding eligible balance.
	OrgIDs []string `json:"org_ids" validate:"omitempty,dive,uuid"`
}

type batchResponse struct {
	ID               uuid.UUID       `json:"id"`
	Reference        string          `json:"reference"`
	Period           string          `json:"period"`
	CollectionDate   timeutil.Date   `json:"collection_date"`
	TransactionCount int             `json:"transaction_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Status           string          `json:"status"`
	OrgID            string          `json:"org_id"`
}

func (s Server) list(w http.ResponseWriter, r *http.Request) {
	batches, err := s.collectionService.Batches(r.Context(), api.OrgID(r.Context()))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	resp := make([]batchResponse, 0, len(batches))
	for _, batch := range batches {
		resp = append(resp, toResponse(batch))
	}
	api.WriteJSON(w, resp, http.StatusOK)
}

// create runs the manual path for the calling tenant only.
func (s Server) create(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	collectionDate, ok := s.parseCollectionDate(w, req.CollectionDate)
	if !ok {
		return
	}

	orgID := api.OrgID(r.Context())
	s.createBatches(w, r, collectionDate, []string{orgID})
}

// adminCreate runs the manual path across tenants, optionally narrowed to
// the requested org ids.
func (s Server) adminCreate(w http.ResponseWriter, r *http.Request) {
	var req adminCreateBatchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	collectionDate, ok := s.parseCollectionDate(w, req.CollectionDate)
	if !ok {
		return
	}

	s.createBatches(w, r, collectionDate, req.OrgIDs)
}

func (s Server) createBatches(w http.ResponseWriter, r *http.Request, collectionDate timeutil.Date, orgFilter []string) {
	batches, err := s.collectionService.CreateManualBatches(r.Context(), collectionDate, orgFilter)
	if err != nil {
		if errors.Is(err, collection.ErrNoEligibleMandates) {
			api.WriteError(w, api.NewError("NO_ELIGIBLE_MANDATES", http.StatusNotFound, err.Error()))
			return
		}
		api.WriteError(w, err)
		return
	}

	resp := make([]batchResponse, 0, len(batches))
	for _, batch := range batches {
		resp = append(resp, toResponse(batch))
	}
	api.WriteJSON(w, resp, http.StatusCreated)
}

// decodeBody decodes and validates an optional JSON body. It writes the
// error response itself and reports whether the handler may proceed.
func (s Server) decodeBody(w http.ResponseWriter, r *http.Request, req any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		api.WriteError(w, api.NewError("INVALID_BODY", http.StatusBadRequest, "could not decode request body"))
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		api.WriteError(w, api.NewError("INVALID_REQUEST", http.StatusBadRequest, err.Error()))
		return false
	}
	return true
}

func (s Server) parseCollectionDate(w http.ResponseWriter, value string) (timeutil.Date, bool) {
	if value == "" {
		return timeutil.DateNow(), true
	}
	parsed, err := timeutil.ParseDate(value)
	if err != nil {
		api.WriteError(w, api.NewError("INVALID_DATE", http.StatusBadRequest, "collection_date must use 2006-01-02 notation"))
		return timeutil.Date{}, false
	}
	return parsed, true
}

func (s Server) get(w http.ResponseWriter, r *http.Request) {
	batch, err := s.collectionService.Batch(r.Context(), r.PathValue("id"), api.OrgID(r.Context()))
	if err != nil {
		writeBatchError(w, err)
		return
	}
	api.WriteJSON(w, toResponse(batch), http.StatusOK)
}

// export renders the pain.008 file and flips the batch to exported. The
// same batch can be downloaded again; re-export is idempotent.
func (s Server) export(w http.ResponseWriter, r *http.Request) {
	orgID := api.OrgID(r.Context())
	batch, err := s.collectionService.Batch(r.Context(), r.PathValue("id"), orgID)
	if err != nil {
		writeBatchError(w, err)
		return
	}

	o, err := s.orgService.Org(r.Context(), orgID)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	if !o.CreditorConfigured() {
		api.WriteError(w, api.NewError("CREDITOR_NOT_CONFIGURED", http.StatusBadRequest,
			"configure the creditor identity before exporting SEPA files"))
		return
	}

	items, err := s.collectionService.ExportItems(r.Context(), batch.ID.String(), orgID)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	sepaItems := make([]sepa.Item, 0, len(items))
	for _, item := range items {
		sepaItems = append(sepaItems, sepa.Item{
			EndToEndID:       item.EndToEndID,
			Amount:           item.Amount,
			MandateReference: item.MandateReference,
			SignedAt:         item.SignedAt,
			AccountHolder:    item.AccountHolder,
			IBAN:             item.IBAN,
			BIC:              item.BIC,
			Remittance:       "Collection " + batch.Period,
		})
	}

	creditor := sepa.Creditor{
		Name:     *o.CreditorName,
		IBAN:     *o.CreditorIBAN,
		SchemeID: *o.CreditorSchemeID,
	}
	if o.CreditorBIC != nil {
		creditor.BIC = *o.CreditorBIC
	}

	xml, err := sepa.Render(sepa.File{
		MessageID:      batch.Reference,
		CreatedAt:      time.Now().UTC(),
		CollectionDate: batch.CollectionDate,
		Creditor:       creditor,
		Items:          sepaItems,
	})
	if err != nil {
		if errors.Is(err, sepa.ErrNoItems) {
			api.WriteError(w, api.NewError("EMPTY_BATCH", http.StatusNotFound, err.Error()))
			return
		}
		api.WriteError(w, err)
		return
	}

	if err := s.collectionService.MarkExported(r.Context(), batch.ID.String(), orgID); err != nil {
		writeBatchError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", `attachment; filename="`+batch.Reference+`.xml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xml)
}

func writeBatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collection.ErrBatchNotFound):
		api.WriteError(w, api.NewError("NOT_FOUND", http.StatusNotFound, "batch not found"))
	case errors.Is(err, collection.ErrBatchNotExportable):
		api.WriteError(w, api.NewError("NOT_EXPORTABLE", http.StatusConflict, "batch is not exportable"))
	default:
		api.WriteError(w, err)
	}
}

func toResponse(batch *collection.Batch) batchResponse {
	return batchResponse{
		ID:               batch.ID,
		Reference:        batch.Reference,
		Period:           batch.Period,
		CollectionDate:   batch.CollectionDate,
		TransactionCount: batch.TransactionCount,
		TotalAmount:      batch.TotalAmount,
		Status:           string(batch.Status),
		OrgID:            batch.OrgID,
	}
}

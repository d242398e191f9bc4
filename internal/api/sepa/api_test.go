package sepaapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dojoware/collect/internal/api"
	"github.com/dojoware/collect/internal/collection"
	"github.com/dojoware/collect/internal/org"
	"github.com/dojoware/collect/internal/timeutil"
)

type fakeOrgSource struct {
	orgs map[string]*org.Org
}

func (f fakeOrgSource) Org(_ context.Context, id string) (*org.Org, error) {
	o, ok := f.orgs[id]
	if !ok {
		return nil, org.ErrNotFound
	}
	return o, nil
}

type fakeBatchService struct {
	batches map[string]*collection.Batch
	items   []collection.ExportItem

	createdFilter []string
	createdDate   timeutil.Date
	exported      []string
}

func (f *fakeBatchService) Batches(_ context.Context, orgID string) ([]*collection.Batch, error) {
	var batches []*collection.Batch
	for _, batch := range f.batches {
		if batch.OrgID == orgID {
			batches = append(batches, batch)
		}
	}
	return batches, nil
}

func (f *fakeBatchService) Batch(_ context.Context, id, orgID string) (*collection.Batch, error) {
	batch, ok := f.batches[id]
	if !ok || batch.OrgID != orgID {
		return nil, collection.ErrBatchNotFound
	}
	return batch, nil
}

func (f *fakeBatchService) CreateManualBatches(_ context.Context, executionDate timeutil.Date, orgFilter []string) ([]*collection.Batch, error) {
	f.createdFilter = orgFilter
	f.createdDate = executionDate

	var batches []*collection.Batch
	for _, batch := range f.batches {
		if len(orgFilter) == 0 {
			batches = append(batches, batch)
			continue
		}
		for _, id := range orgFilter {
			if batch.OrgID == id {
				batches = append(batches, batch)
			}
		}
	}
	if len(batches) == 0 {
		return nil, collection.ErrNoEligibleMandates
	}
	return batches, nil
}

func (f *fakeBatchService) ExportItems(_ context.Context, _, _ string) ([]collection.ExportItem, error) {
	return f.items, nil
}

func (f *fakeBatchService) MarkExported(_ context.Context, batchID, _ string) error {
	f.exported = append(f.exported, batchID)
	return nil
}

func testBatch(orgID string) *collection.Batch {
	date, _ := timeutil.ParseDate("2026-09-05")
	return &collection.Batch{
		ID:               uuid.New(),
		Reference:        "COLL-2026-09-AB12CD34",
		Period:           "2026-09",
		CollectionDate:   date,
		TransactionCount: 1,
		TotalAmount:      decimal.RequireFromString("39.90"),
		Status:           collection.BatchStatusCreated,
		OrgID:            orgID,
	}
}

func tenantRequest(server Server, method, target, body, orgID string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(api.HeaderOrgID, orgID)
	rec := httptest.NewRecorder()
	api.OrgScopeMiddleware(mux).ServeHTTP(rec, req)
	return rec
}

func adminRequest(server Server, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	server.RegisterAdminRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/admin/sepa/batches", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreatePinsFilterToCallingTenant(t *testing.T) {
	orgID := uuid.NewString()
	service := &fakeBatchService{batches: map[string]*collection.Batch{}}
	batch := testBatch(orgID)
	service.batches[batch.ID.String()] = batch
	server := NewServer(fakeOrgSource{}, service)

	rec := tenantRequest(server, http.MethodPost, "/sepa/batches", `{"collection_date":"2026-09-05"}`, orgID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(service.createdFilter) != 1 || service.createdFilter[0] != orgID {
		t.Fatalf("want filter pinned to %s, got %v", orgID, service.createdFilter)
	}
	if service.createdDate.String() != "2026-09-05" {
		t.Fatalf("want collection date 2026-09-05, got %s", service.createdDate)
	}
}

func TestAdminCreateForwardsOrgFilter(t *testing.T) {
	firstOrg, secondOrg := uuid.NewString(), uuid.NewString()
	service := &fakeBatchService{batches: map[string]*collection.Batch{}}
	for _, orgID := range []string{firstOrg, secondOrg} {
		batch := testBatch(orgID)
		service.batches[batch.ID.String()] = batch
	}
	server := NewServer(fakeOrgSource{}, service)

	rec := adminRequest(server, `{"collection_date":"2026-09-05","org_ids":["`+firstOrg+`"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(service.createdFilter) != 1 || service.createdFilter[0] != firstOrg {
		t.Fatalf("want filter %v, got %v", []string{firstOrg}, service.createdFilter)
	}
	if !strings.Contains(rec.Body.String(), firstOrg) || strings.Contains(rec.Body.String(), secondOrg) {
		t.Fatalf("response must only carry batches of the filtered org: %s", rec.Body.String())
	}
}

func TestAdminCreateWithoutFilterSpansAllTenants(t *testing.T) {
	firstOrg, secondOrg := uuid.NewString(), uuid.NewString()
	service := &fakeBatchService{batches: map[string]*collection.Batch{}}
	for _, orgID := range []string{firstOrg, secondOrg} {
		batch := testBatch(orgID)
		service.batches[batch.ID.String()] = batch
	}
	server := NewServer(fakeOrgSource{}, service)

	rec := adminRequest(server, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("want status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(service.createdFilter) != 0 {
		t.Fatalf("want empty filter, got %v", service.createdFilter)
	}
	if !strings.Contains(rec.Body.String(), firstOrg) || !strings.Contains(rec.Body.String(), secondOrg) {
		t.Fatalf("response must carry batches of every tenant: %s", rec.Body.String())
	}
}

func TestAdminCreateRejectsMalformedOrgID(t *testing.T) {
	service := &fakeBatchService{batches: map[string]*collection.Batch{}}
	server := NewServer(fakeOrgSource{}, service)

	rec := adminRequest(server, `{"org_ids":["not-a-uuid"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want status 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.createdFilter != nil {
		t.Fatalf("invalid request must not reach the orchestrator")
	}
}

func TestCreateNoEligibleMandates(t *testing.T) {
	service := &fakeBatchService{batches: map[string]*collection.Batch{}}
	server := NewServer(fakeOrgSource{}, service)

	rec := tenantRequest(server, http.MethodPost, "/sepa/batches", "", uuid.NewString())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want status 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "NO_ELIGIBLE_MANDATES") {
		t.Fatalf("want NO_ELIGIBLE_MANDATES error, got %s", rec.Body.String())
	}
}

func TestExportRequiresCreditorConfiguration(t *testing.T) {
	orgID := uuid.New()
	service := &fakeBatchService{batches: map[string]*collection.Batch{}}
	batch := testBatch(orgID.String())
	service.batches[batch.ID.String()] = batch
	orgs := fakeOrgSource{orgs: map[string]*org.Org{
		orgID.String(): {ID: orgID, Name: "Unready Org", ProviderMode: org.ProviderModeManual},
	}}
	server := NewServer(orgs, service)

	rec := tenantRequest(server, http.MethodGet, "/sepa/batches/"+batch.ID.String()+"/xml", "", orgID.String())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want status 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "CREDITOR_NOT_CONFIGURED") {
		t.Fatalf("want CREDITOR_NOT_CONFIGURED error, got %s", rec.Body.String())
	}
	if len(service.exported) != 0 {
		t.Fatalf("failed export must not flip the batch")
	}
}

func TestExportRendersFileAndMarksBatch(t *testing.T) {
	orgID := uuid.New()
	name, iban, schemeID := "Riverside Sports Club", "DE89370400440532013000", "DE98ZZZ09999999999"
	orgs := fakeOrgSource{orgs: map[string]*org.Org{
		orgID.String(): {
			ID:               orgID,
			Name:             name,
			ProviderMode:     org.ProviderModeManual,
			CreditorName:     &name,
			CreditorIBAN:     &iban,
			CreditorSchemeID: &schemeID,
		},
	}}

	signedAt, _ := timeutil.ParseDate("2025-01-15")
	service := &fakeBatchService{
		batches: map[string]*collection.Batch{},
		items: []collection.ExportItem{{
			EndToEndID:       "E2E0001",
			Amount:           decimal.RequireFromString("39.90"),
			MandateReference: "MNDT-0001",
			SignedAt:         signedAt,
			AccountHolder:    "Jo Debtor",
			IBAN:             "NL91ABNA0417164300",
			BIC:              "ABNANL2A",
		}},
	}
	batch := testBatch(orgID.String())
	service.batches[batch.ID.String()] = batch
	server := NewServer(orgs, service)

	rec := tenantRequest(server, http.MethodGet, "/sepa/batches/"+batch.ID.String()+"/xml", "", orgID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/xml" {
		t.Fatalf("want application/xml, got %s", got)
	}
	if !strings.Contains(rec.Body.String(), "MNDT-0001") {
		t.Fatalf("rendered file must carry the mandate reference: %s", rec.Body.String())
	}
	if len(service.exported) != 1 || service.exported[0] != batch.ID.String() {
		t.Fatalf("batch was not marked exported: %v", service.exported)
	}
}

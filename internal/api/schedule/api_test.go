package scheduleapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/dojoware/collect/internal/api"
	"github.com/dojoware/collect/internal/org"
	"github.com/dojoware/collect/internal/provider"
	"github.com/dojoware/collect/internal/schedule"
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

func providerStatusRequest(t *testing.T, server Server, orgID string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/schedules/provider-status", nil)
	req.Header.Set(api.HeaderOrgID, orgID)
	rec := httptest.NewRecorder()
	api.OrgScopeMiddleware(mux).ServeHTTP(rec, req)
	return rec
}

func TestProviderStatus(t *testing.T) {
	apiKey := "sk_live_123"
	configured := &org.Org{ID: uuid.New(), ProviderMode: org.ProviderModeGateway, GatewayAPIKey: &apiKey}
	unconfigured := &org.Org{ID: uuid.New(), ProviderMode: org.ProviderModeGateway}
	manual := &org.Org{ID: uuid.New(), ProviderMode: org.ProviderModeManual}

	orgs := fakeOrgSource{orgs: map[string]*org.Org{
		configured.ID.String():   configured,
		unconfigured.ID.String(): unconfigured,
		manual.ID.String():       manual,
	}}
	providers := provider.NewRegistry(
		provider.NewManual(),
		provider.NewGateway(nil, nil),
		provider.NewMarketplace(nil, "", nil),
	)
	server := NewServer(schedule.Service{}, schedule.Trigger{}, orgs, providers)

	for _, tc := range []struct {
		name           string
		orgID          string
		wantMode       org.ProviderMode
		wantConfigured bool
	}{
		{"configured gateway", configured.ID.String(), org.ProviderModeGateway, true},
		{"missing api key", unconfigured.ID.String(), org.ProviderModeGateway, false},
		{"manual tenant", manual.ID.String(), org.ProviderModeManual, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := providerStatusRequest(t, server, tc.orgID)
			if rec.Code != http.StatusOK {
				t.Fatalf("want status 200, got %d: %s", rec.Code, rec.Body.String())
			}

			var status provider.ConfigurationStatus
			if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
				t.Fatalf("could not decode response: %v", err)
			}
			if status.Mode != tc.wantMode {
				t.Fatalf("want mode %s, got %s", tc.wantMode, status.Mode)
			}
			if status.Configured != tc.wantConfigured {
				t.Fatalf("want configured %v, got %v", tc.wantConfigured, status.Configured)
			}
			if !status.Configured && status.Detail == "" {
				t.Fatalf("unconfigured status must carry a detail")
			}
		})
	}
}

func TestProviderStatusUnknownOrg(t *testing.T) {
	providers := provider.NewRegistry(
		provider.NewManual(),
		provider.NewGateway(nil, nil),
		provider.NewMarketplace(nil, "", nil),
	)
	server := NewServer(schedule.Service{}, schedule.Trigger{}, fakeOrgSource{}, providers)

	rec := providerStatusRequest(t, server, uuid.NewString())
	if rec.Code == http.StatusOK {
		t.Fatalf("unknown org must not answer 200")
	}
}

package memberapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/google/uuid"

	"github.com/dojoware/collect/internal/api"
	"github.com/dojoware/collect/internal/member"
	"github.com/dojoware/collect/internal/page"
)

type fakeDirectory struct {
	members []*member.Member
	cleared []string
}

func (f *fakeDirectory) Members(_ context.Context, orgID string, pag page.Pagination) (page.Page[*member.Member], error) {
	var scoped []*member.Member
	for _, m := range f.members {
		if m.OrgID == orgID {
			scoped = append(scoped, m)
		}
	}
	sort.Slice(scoped, func(i, j int) bool { return scoped[i].Name < scoped[j].Name })

	start := pag.Offset()
	if start > len(scoped) {
		start = len(scoped)
	}
	end := start + pag.Limit()
	if end > len(scoped) {
		end = len(scoped)
	}
	return page.New(scoped[start:end], pag, len(scoped)), nil
}

func (f *fakeDirectory) Member(_ context.Context, id, orgID string) (*member.Member, error) {
	for _, m := range f.members {
		if m.ID.String() == id && m.OrgID == orgID {
			return m, nil
		}
	}
	return nil, member.ErrNotFound
}

func (f *fakeDirectory) ClearPaymentProblem(_ context.Context, id, _ string) error {
	f.cleared = append(f.cleared, id)
	return nil
}

func serve(server Server, method, target, orgID string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(api.HeaderOrgID, orgID)
	rec := httptest.NewRecorder()
	api.OrgScopeMiddleware(mux).ServeHTTP(rec, req)
	return rec
}

func seedMembers(orgID string, names ...string) []*member.Member {
	members := make([]*member.Member, 0, len(names))
	for _, name := range names {
		members = append(members, &member.Member{
			ID:    uuid.New(),
			Name:  name,
			Email: name + "@example.org",
			OrgID: orgID,
		})
	}
	return members
}

func TestListPagesMembers(t *testing.T) {
	orgID := uuid.NewString()
	directory := &fakeDirectory{members: seedMembers(orgID, "Ada", "Ben", "Cleo")}
	directory.members = append(directory.members, seedMembers(uuid.NewString(), "Foreign")...)
	server := NewServer(directory)

	rec := serve(server, http.MethodGet, "/members?page=2&size=2", orgID)
	if rec.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp memberPageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("could not decode response: %v", err)
	}
	if resp.TotalRecords != 3 {
		t.Fatalf("want 3 records in the tenant's directory, got %d", resp.TotalRecords)
	}
	if resp.TotalPages != 2 || resp.Page != 2 || resp.Size != 2 {
		t.Fatalf("unexpected page envelope: %+v", resp)
	}
	if len(resp.Records) != 1 || resp.Records[0].Name != "Cleo" {
		t.Fatalf("want the second page holding Cleo, got %+v", resp.Records)
	}
}

func TestListDefaultsPagination(t *testing.T) {
	orgID := uuid.NewString()
	server := NewServer(&fakeDirectory{members: seedMembers(orgID, "Ada")})

	rec := serve(server, http.MethodGet, "/members", orgID)
	if rec.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp memberPageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("could not decode response: %v", err)
	}
	if resp.Page != 1 || resp.Size != 25 {
		t.Fatalf("want default pagination 1/25, got %d/%d", resp.Page, resp.Size)
	}
}

func TestGetMemberScopedToOrg(t *testing.T) {
	orgID := uuid.NewString()
	directory := &fakeDirectory{members: seedMembers(orgID, "Ada")}
	server := NewServer(directory)
	target := directory.members[0]

	rec := serve(server, http.MethodGet, "/members/"+target.ID.String(), orgID)
	if rec.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(server, http.MethodGet, "/members/"+target.ID.String(), uuid.NewString())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign org must not see the member, got %d", rec.Code)
	}
}

func TestClearPaymentProblem(t *testing.T) {
	orgID := uuid.NewString()
	directory := &fakeDirectory{members: seedMembers(orgID, "Ada")}
	target := directory.members[0]
	reason := "MS03: debtor bank rejected"
	target.PaymentProblem = true
	target.PaymentProblemReason = &reason
	server := NewServer(directory)

	rec := serve(server, http.MethodDelete, "/members/"+target.ID.String()+"/payment-problem", orgID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("want status 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(directory.cleared) != 1 || directory.cleared[0] != target.ID.String() {
		t.Fatalf("flag was not cleared: %v", directory.cleared)
	}

	rec = serve(server, http.MethodDelete, "/members/"+uuid.NewString()+"/payment-problem", orgID)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want status 404 for unknown member, got %d", rec.Code)
	}
}

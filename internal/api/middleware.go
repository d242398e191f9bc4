package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// OrgScopeMiddleware rejects requests without a tenant and stores the org id
// in the request context.
func OrgScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := r.Header.Get(HeaderOrgID)
		if orgID == "" {
			WriteError(w, NewError("MISSING_ORG", http.StatusBadRequest, "missing "+HeaderOrgID+" header"))
			return
		}
		if _, err := uuid.Parse(orgID); err != nil {
			WriteError(w, NewError("INVALID_ORG", http.StatusBadRequest, "invalid "+HeaderOrgID+" header"))
			return
		}

		ctx := context.WithValue(r.Context(), CtxKeyOrgID, orgID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), CtxKeyRequestID, requestID)

		slog.InfoContext(ctx, "request received", "method", r.Method, "path", r.URL.Path, "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OrgID returns the tenant stored in the context by OrgScopeMiddleware.
func OrgID(ctx context.Context) string {
	orgID, _ := ctx.Value(CtxKeyOrgID).(string)
	return orgID
}

package api

type ContextKey string

const (
	CtxKeyOrgID     ContextKey = "org_id"
	CtxKeyRequestID ContextKey = "request_id"
)

// HeaderOrgID carries the tenant resolved by the upstream authentication
// layer. Every tenant-scoped handler requires it.
const HeaderOrgID = "X-Org-ID"

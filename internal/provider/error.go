package provider

import "github.com/dojoware/collect/internal/errorutil"

var (
	// ErrNotConfigured is returned before any charge attempt when the
	// tenant's provider mode cannot charge automatically.
	ErrNotConfigured = errorutil.New("provider is not configured for automated charging")
)

package mandate

import "github.com/dojoware/collect/internal/errorutil"

var (
	ErrNotFound       = errorutil.New("mandate not found")
	ErrAlreadyRevoked = errorutil.New("mandate is already revoked")
)

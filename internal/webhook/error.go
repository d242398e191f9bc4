package webhook

import "github.com/dojoware/collect/internal/errorutil"

var (
	ErrInvalidEvent       = errorutil.New("event is missing id or type")
	ErrDisputeNotFound    = errorutil.New("dispute not found")
	ErrUnknownTransaction = errorutil.New("event references an unknown transaction")
)

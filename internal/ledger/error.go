package ledger

import "github.com/dojoware/collect/internal/errorutil"

var (
	ErrOpenPaymentNotFound = errorutil.New("open payment not found")
	ErrUnknownCategory     = errorutil.New("unknown ledger category")
)

package collection

import "github.com/dojoware/collect/internal/errorutil"

var (
	ErrBatchNotFound       = errorutil.New("batch not found")
	ErrTransactionNotFound = errorutil.New("transaction not found")
	ErrNoEligibleMandates  = errorutil.New("no eligible mandates with outstanding balance")
	ErrBatchNotExportable  = errorutil.New("batch cannot be exported")
)

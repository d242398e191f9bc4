// Package notify delivers run and dispute summaries to tenant admins. The
// orchestrator sends exactly one message per batch, never one per
// transaction.
package notify

import (
	"context"

	"github.com/shopspring/decimal"
)

type BatchSummary struct {
	OrgID        string
	OrgName      string
	Recipient    string
	ScheduleName string
	Period       string
	Status       string
	Processed    int
	Succeeded    int
	Failed       int
	TotalAmount  decimal.Decimal
	ErrorDetail  string
}

type DisputeNotice struct {
	OrgID      string
	Recipient  string
	MemberName string
	Amount     decimal.Decimal
	Outcome    string
	Reference  string
}

type Dispatcher interface {
	BatchFinished(ctx context.Context, summary BatchSummary)
	DisputeClosed(ctx context.Context, notice DisputeNotice)
}

package provider

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dojoware/collect/internal/debtor"
	"github.com/dojoware/collect/internal/org"
	"github.com/dojoware/collect/internal/timeutil"
)

// Strategy is the capability a tenant's provider mode offers for automated
// charging. Implementations must keep ChargeBatch sequential and isolate
// per-debtor failures.
type Strategy interface {
	Configured(o *org.Org) bool
	ConfigurationStatus(o *org.Org) ConfigurationStatus
	ChargeOne(ctx context.Context, o *org.Org, req ChargeRequest) (ChargeResult, error)
	ChargeBatch(ctx context.Context, o *org.Org, debtors []debtor.Debtor, period string) BatchResult
}

type ConfigurationStatus struct {
	Mode       org.ProviderMode `json:"mode"`
	Configured bool             `json:"configured"`
	Detail     string           `json:"detail,omitempty"`
}

type ChargeRequest struct {
	CustomerID     string
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey string
	MemberName     string
}

type ChargeStatus string

const (
	ChargeSucceeded ChargeStatus = "SUCCEEDED"
	ChargeFailed    ChargeStatus = "FAILED"
)

type ChargeResult struct {
	Status ChargeStatus
	// ExternalRef is the gateway's charge id; asynchronous events reference
	// it later.
	ExternalRef *string
	// PlatformFee is the fee retained by the platform (marketplace mode).
	PlatformFee decimal.Decimal

	FailureKind    FailureKind
	FailureCode    string
	FailureMessage string
}

// Outcome is the per-debtor result of a batch charge.
type Outcome struct {
	Debtor debtor.Debtor
	Result ChargeResult
}

type BatchResult struct {
	Outcomes []Outcome
}

func (r BatchResult) Counts() (succeeded, failed int) {
	for _, o := range r.Outcomes {
		if o.Result.Status == ChargeSucceeded {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// PlatformTransfer records the platform's cut of a marketplace charge,
// written alongside the transaction.
type PlatformTransfer struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChargeRef string
	Amount    decimal.Decimal `gorm:"type:numeric(12,2)"`

	OrgID     string
	CreatedAt timeutil.DateTime
}

func (PlatformTransfer) TableName() string {
	return "platform_transfers"
}

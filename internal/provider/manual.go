package provider

import (
	"context"

	"github.com/dojoware/collect/internal/debtor"
	"github.com/dojoware/collect/internal/org"
)

// Manual is the no-op strategy for tenants that settle direct debits
// outside the system. It never charges; such tenants only use the SEPA
// export path.
type Manual struct{}

func NewManual() Manual {
	return Manual{}
}

func (Manual) Configured(*org.Org) bool {
	return false
}

func (Manual) ConfigurationStatus(o *org.Org) ConfigurationStatus {
	return ConfigurationStatus{
		Mode:       org.ProviderModeManual,
		Configured: false,
		Detail:     "direct debit is settled manually via SEPA file export",
	}
}

func (Manual) ChargeOne(context.Context, *org.Org, ChargeRequest) (ChargeResult, error) {
	return ChargeResult{}, ErrNotConfigured
}

func (Manual) ChargeBatch(context.Context, *org.Org, []debtor.Debtor, string) BatchResult {
	return BatchResult{}
}

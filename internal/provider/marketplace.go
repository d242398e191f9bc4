package provider

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/dojoware/collect/internal/debtor"
	"github.com/dojoware/collect/internal/org"
	"github.com/dojoware/collect/internal/timeutil"
)

// Marketplace routes charges through the shared platform account on behalf
// of the tenant's connected sub-account, retaining a platform fee per
// charge.
type Marketplace struct {
	client         Client
	platformAPIKey string
	db             *gorm.DB
}

func NewMarketplace(client Client, platformAPIKey string, db *gorm.DB) Marketplace {
	return Marketplace{client: client, platformAPIKey: platformAPIKey, db: db}
}

func (m Marketplace) Configured(o *org.Org) bool {
	return m.platformAPIKey != "" && o.GatewayAccountID != nil && *o.GatewayAccountID != ""
}

func (m Marketplace) ConfigurationStatus(o *org.Org) ConfigurationStatus {
	status := ConfigurationStatus{
		Mode:       org.ProviderModeMarketplace,
		Configured: m.Configured(o),
	}
	if o.GatewayAccountID == nil || *o.GatewayAccountID == "" {
		status.Detail = "connected account is not linked"
	} else if m.platformAPIKey == "" {
		status.Detail = "platform gateway credentials are missing"
	}
	return status
}

func (m Marketplace) ChargeOne(ctx context.Context, o *org.Org, req ChargeRequest) (ChargeResult, error) {
	if !m.Configured(o) {
		return ChargeResult{}, ErrNotConfigured
	}

	fee := PlatformFee(req.Amount, o.PlatformFeePercent, o.PlatformFeeFixed)
	charge, err := m.client.CreateCharge(ctx, m.platformAPIKey, ChargeParams{
		CustomerID:     req.CustomerID,
		Amount:         req.Amount,
		Currency:       "EUR",
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
		Destination:    *o.GatewayAccountID,
		ApplicationFee: &fee,
	})
	if err != nil {
		kind, code, message := ClassifyError(err)
		return ChargeResult{
			Status:         ChargeFailed,
			FailureKind:    kind,
			FailureCode:    code,
			FailureMessage: message,
		}, nil
	}

	transfer := &PlatformTransfer{
		ChargeRef: charge.ID,
		Amount:    fee,
		OrgID:     o.ID.String(),
		CreatedAt: timeutil.DateTimeNow(),
	}
	if err := m.db.WithContext(ctx).Create(transfer).Error; err != nil {
		// The charge already settled at the gateway; losing the transfer row
		// must not turn it into a failure.
		slog.ErrorContext(ctx, "could not record platform transfer", "org_id", o.ID, "charge_ref", charge.ID, "error", err)
	}

	return ChargeResult{Status: ChargeSucceeded, ExternalRef: &charge.ID, PlatformFee: fee}, nil
}

func (m Marketplace) ChargeBatch(ctx context.Context, o *org.Org, debtors []debtor.Debtor, period string) BatchResult {
	return chargeSequentially(ctx, m, o, debtors, period)
}

package org

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dojoware/collect/internal/timeutil"
)

type Org struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name string

	// ProviderMode selects the charge strategy used for this tenant.
	ProviderMode ProviderMode

	// Gateway credentials. GatewayAPIKey is set for the gateway mode,
	// GatewayAccountID for the marketplace mode (connected sub-account).
	GatewayAPIKey    *string
	GatewayAccountID *string

	// Platform fee applied to marketplace charges.
	PlatformFeePercent decimal.Decimal `gorm:"type:numeric(5,2)"`
	PlatformFeeFixed   decimal.Decimal `gorm:"type:numeric(12,2)"`

	// SEPA creditor identity used when rendering direct-debit files.
	CreditorName     *string
	CreditorIBAN     *string
	CreditorBIC      *string
	CreditorSchemeID *string

	// NotificationEmail receives batch and dispute summaries.
	NotificationEmail *string

	CreatedAt timeutil.DateTime
	UpdatedAt timeutil.DateTime
}

func (Org) TableName() string {
	return "orgs"
}

// CreditorConfigured reports whether the tenant can render SEPA files.
func (o Org) CreditorConfigured() bool {
	return o.CreditorName != nil && o.CreditorIBAN != nil && o.CreditorSchemeID != nil
}

type ProviderMode string

const (
	// ProviderModeManual means the tenant settles direct debits outside the
	// system; batches are only exported as SEPA files.
	ProviderModeManual ProviderMode = "MANUAL"
	// ProviderModeGateway charges against the tenant's own gateway account.
	ProviderModeGateway ProviderMode = "GATEWAY"
	// ProviderModeMarketplace routes charges through the platform account on
	// behalf of the tenant's connected sub-account.
	ProviderModeMarketplace ProviderMode = "MARKETPLACE"
)

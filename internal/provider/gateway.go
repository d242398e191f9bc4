package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dojoware/collect/internal/bookkeeping"
	"github.com/dojoware/collect/internal/debtor"
	"github.com/dojoware/collect/internal/org"
)

// Gateway charges against the tenant's own gateway credentials. Settled
// charges are pushed to the tenant's bookkeeping system asynchronously.
type Gateway struct {
	client   Client
	exporter bookkeeping.Exporter
}

func NewGateway(client Client, exporter bookkeeping.Exporter) Gateway {
	return Gateway{client: client, exporter: exporter}
}

func (Gateway) Configured(o *org.Org) bool {
	return o.GatewayAPIKey != nil && *o.GatewayAPIKey != ""
}

func (g Gateway) ConfigurationStatus(o *org.Org) ConfigurationStatus {
	status := ConfigurationStatus{
		Mode:       org.ProviderModeGateway,
		Configured: g.Configured(o),
	}
	if !status.Configured {
		status.Detail = "gateway API key is missing"
	}
	return status
}

func (g Gateway) ChargeOne(ctx context.Context, o *org.Org, req ChargeRequest) (ChargeResult, error) {
	if !g.Configured(o) {
		return ChargeResult{}, ErrNotConfigured
	}

	charge, err := g.client.CreateCharge(ctx, *o.GatewayAPIKey, ChargeParams{
		CustomerID:     req.CustomerID,
		Amount:         req.Amount,
		Currency:       "EUR",
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
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

	g.scheduleExport(ctx, o, charge.ID, req)

	return ChargeResult{Status: ChargeSucceeded, ExternalRef: &charge.ID}, nil
}

func (g Gateway) ChargeBatch(ctx context.Context, o *org.Org, debtors []debtor.Debtor, period string) BatchResult {
	return chargeSequentially(ctx, g, o, debtors, period)
}

// scheduleExport pushes the settled charge to bookkeeping without blocking
// the batch. Export failures are logged and never fail the charge.
func (g Gateway) scheduleExport(ctx context.Context, o *org.Org, chargeRef string, req ChargeRequest) {
	if g.exporter == nil {
		return
	}

	exportCtx := context.WithoutCancel(ctx)
	go func() {
		err := g.exporter.ExportCharge(exportCtx, bookkeeping.ChargeExport{
			OrgID:       o.ID.String(),
			ChargeRef:   chargeRef,
			MemberName:  req.MemberName,
			Amount:      req.Amount,
			Currency:    "EUR",
			Description: req.Description,
		})
		if err != nil {
			slog.ErrorContext(exportCtx, "bookkeeping export failed", "org_id", o.ID, "charge_ref", chargeRef, "error", err)
		}
	}()
}

// chargeSequentially is the shared batch loop: debtors charge one at a
// time, and a failed debtor never aborts its siblings.
func chargeSequentially(ctx context.Context, strategy Strategy, o *org.Org, debtors []debtor.Debtor, period string) BatchResult {
	result := BatchResult{}
	for _, d := range debtors {
		req := ChargeRequest{
			CustomerID:     d.GatewayCustomerID,
			Amount:         d.Amount,
			Description:    fmt.Sprintf("Collection %s, mandate %s", period, d.MandateReference),
			IdempotencyKey: fmt.Sprintf("%s-%s", period, d.MandateReference),
			MemberName:     d.MemberName,
		}

		chargeResult, err := strategy.ChargeOne(ctx, o, req)
		if err != nil {
			chargeResult = ChargeResult{
				Status:         ChargeFailed,
				FailureKind:    FailureGeneric,
				FailureMessage: err.Error(),
			}
		}
		result.Outcomes = append(result.Outcomes, Outcome{Debtor: d, Result: chargeResult})
	}
	return result
}

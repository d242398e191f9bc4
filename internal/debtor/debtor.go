// Package debtor aggregates what each member owes across the configured
// ledger categories for one collection run.
package debtor

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dojoware/collect/internal/ledger"
	"github.com/dojoware/collect/internal/mandate"
	"github.com/dojoware/collect/internal/timeutil"
)

// Debtor is one member's merged amount owed for a collection run. A member
// appearing in several categories gets a single entry with the summed
// amount.
type Debtor struct {
	MemberID          uuid.UUID
	MemberName        string
	MandateID         uuid.UUID
	MandateReference  string
	GatewayCustomerID string
	Amount            decimal.Decimal
	SourceRefs        []ledger.SourceRef
}

// Result carries the eligible debtors plus the raw outstanding-member count
// before mandate and gateway filtering, so callers can diff for auditing.
type Result struct {
	Debtors         []Debtor
	OutstandingRaw  int
	ExcludedMembers int
}

// OutstandingSource yields the unpaid balances of one category. Satisfied
// by ledger.Service.
type OutstandingSource interface {
	Outstanding(ctx context.Context, orgID string, category ledger.Category, cutoff timeutil.Date) ([]ledger.Outstanding, error)
}

// MandateSource yields the active mandates of a tenant. Satisfied by
// mandate.Service.
type MandateSource interface {
	EligibleForOrg(ctx context.Context, orgID string) ([]*mandate.Eligible, error)
}

type Service struct {
	ledgerService  OutstandingSource
	mandateService MandateSource
}

func NewService(ledgerService OutstandingSource, mandateService MandateSource) Service {
	return Service{
		ledgerService:  ledgerService,
		mandateService: mandateService,
	}
}

// Collect gathers all members of the tenant with an outstanding balance in
// the given categories up to the cutoff date. Only members with an active
// mandate and a linked gateway customer are returned; the rest are counted
// but silently excluded.
func (s Service) Collect(ctx context.Context, orgID string, categories []ledger.Category, cutoff timeutil.Date) (*Result, error) {
	return s.collect(ctx, orgID, categories, cutoff, true)
}

// CollectForExport is the manual-settlement variant: an active mandate is
// enough, no gateway identity required, since nothing gets charged.
func (s Service) CollectForExport(ctx context.Context, orgID string, categories []ledger.Category, cutoff timeutil.Date) (*Result, error) {
	return s.collect(ctx, orgID, categories, cutoff, false)
}

func (s Service) collect(ctx context.Context, orgID string, categories []ledger.Category, cutoff timeutil.Date, requireGateway bool) (*Result, error) {
	merged := map[uuid.UUID]*Debtor{}
	for _, category := range categories {
		outstanding, err := s.ledgerService.Outstanding(ctx, orgID, category, cutoff)
		if err != nil {
			return nil, fmt.Errorf("could not load outstanding %s: %w", category, err)
		}

		for _, o := range outstanding {
			d, ok := merged[o.MemberID]
			if !ok {
				d = &Debtor{MemberID: o.MemberID, Amount: decimal.Zero}
				merged[o.MemberID] = d
			}
			d.Amount = d.Amount.Add(o.Amount)
			for _, id := range o.SourceIDs {
				d.SourceRefs = append(d.SourceRefs, ledger.SourceRef{Category: category, ID: id})
			}
		}
	}

	eligible, err := s.mandateService.EligibleForOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("could not load eligible mandates: %w", err)
	}
	mandateByMember := map[uuid.UUID]*mandate.Eligible{}
	for _, e := range eligible {
		mandateByMember[e.MemberID] = e
	}

	result := &Result{OutstandingRaw: len(merged)}
	for memberID, d := range merged {
		m, ok := mandateByMember[memberID]
		if !ok || (requireGateway && m.GatewayCustomerID == nil) {
			result.ExcludedMembers++
			continue
		}
		d.MemberName = m.MemberName
		d.MandateID = m.ID
		d.MandateReference = m.Reference
		if m.GatewayCustomerID != nil {
			d.GatewayCustomerID = *m.GatewayCustomerID
		}
		result.Debtors = append(result.Debtors, *d)
	}

	// Stable ordering keeps repeated runs over unchanged data byte-identical.
	sort.Slice(result.Debtors, func(i, j int) bool {
		return result.Debtors[i].MemberID.String() < result.Debtors[j].MemberID.String()
	})

	return result, nil
}

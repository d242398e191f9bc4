package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dojoware/collect/cmd/cmdutil"
	"github.com/dojoware/collect/internal/ledger"
	"github.com/dojoware/collect/internal/mandate"
	"github.com/dojoware/collect/internal/member"
	"github.com/dojoware/collect/internal/org"
	"github.com/dojoware/collect/internal/schedule"
	"github.com/dojoware/collect/internal/timeutil"
)

// Fixed ids keep seeding idempotent and give the local environment stable
// references to test against.
var (
	riversideOrgID    = uuid.MustParse("11111111-0000-0000-0000-000000000001")
	riversideMemberID = uuid.MustParse("11111111-0000-0000-0000-000000000101")
	riversideMandate  = uuid.MustParse("11111111-0000-0000-0000-000000000201")

	harborOrgID    = uuid.MustParse("22222222-0000-0000-0000-000000000001")
	harborMemberID = uuid.MustParse("22222222-0000-0000-0000-000000000101")
	harborMandate  = uuid.MustParse("22222222-0000-0000-0000-000000000201")
)

func seedDatabase(ctx context.Context, db *gorm.DB) error {
	if err := seedRiverside(ctx, db); err != nil {
		return fmt.Errorf("failed to seed riverside: %w", err)
	}
	if err := seedHarbor(ctx, db); err != nil {
		return fmt.Errorf("failed to seed harbor: %w", err)
	}
	return nil
}

// seedRiverside is a gateway-mode tenant with an automated monthly schedule.
func seedRiverside(ctx context.Context, db *gorm.DB) error {
	now := timeutil.DateTimeNow()
	create := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true})

	if err := create.Create(&org.Org{
		ID:                riversideOrgID,
		Name:              "Riverside Sports Club",
		ProviderMode:      org.ProviderModeGateway,
		GatewayAPIKey:     cmdutil.PointerOf("sk_test_riverside"),
		CreditorName:      cmdutil.PointerOf("Riverside Sports Club e.V."),
		CreditorIBAN:      cmdutil.PointerOf("DE89370400440532013000"),
		CreditorBIC:       cmdutil.PointerOf("COBADEFFXXX"),
		CreditorSchemeID:  cmdutil.PointerOf("DE98ZZZ09999999999"),
		NotificationEmail: cmdutil.PointerOf("treasurer@riverside.local"),
		CreatedAt:         now,
		UpdatedAt:         now,
	}).Error; err != nil {
		return err
	}

	if err := create.Create(&member.Member{
		ID:                riversideMemberID,
		Name:              "Jonas Weber",
		Email:             "jonas.weber@riverside.local",
		GatewayCustomerID: cmdutil.PointerOf("cus_riverside_jonas"),
		OrgID:             riversideOrgID.String(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}).Error; err != nil {
		return err
	}

	signedAt, _ := timeutil.ParseDate("2025-01-15")
	if err := create.Create(&mandate.Mandate{
		ID:            riversideMandate,
		MemberID:      riversideMemberID,
		IBAN:          "DE02120300000000202051",
		BIC:           "BYLADEM1001",
		AccountHolder: "Jonas Weber",
		Reference:     "RVSD-2025-0001",
		SignedAt:      signedAt,
		Status:        mandate.StatusActive,
		OrgID:         riversideOrgID.String(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}).Error; err != nil {
		return err
	}

	dueAt := timeutil.DateNow()
	if err := create.Create(&ledger.Due{
		ID:        uuid.MustParse("11111111-0000-0000-0000-000000000301"),
		MemberID:  riversideMemberID,
		Period:    dueAt.Format("2006-01"),
		Amount:    decimal.RequireFromString("39.90"),
		DueAt:     dueAt,
		OrgID:     riversideOrgID.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}).Error; err != nil {
		return err
	}

	return create.Create(&schedule.Schedule{
		ID:         uuid.MustParse("11111111-0000-0000-0000-000000000401"),
		Name:       "Monthly dues",
		DayOfMonth: 1,
		TimeOfDay:  "06:00",
		Categories: schedule.Categories{ledger.CategoryDues},
		Active:     true,
		OrgID:      riversideOrgID.String(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error
}

// seedHarbor is a manual-mode tenant that exports SEPA files instead of
// charging online.
func seedHarbor(ctx context.Context, db *gorm.DB) error {
	now := timeutil.DateTimeNow()
	create := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true})

	if err := create.Create(&org.Org{
		ID:                harborOrgID,
		Name:              "Harbor Rowing Association",
		ProviderMode:      org.ProviderModeManual,
		CreditorName:      cmdutil.PointerOf("Harbor Rowing Association"),
		CreditorIBAN:      cmdutil.PointerOf("NL91ABNA0417164300"),
		CreditorBIC:       cmdutil.PointerOf("ABNANL2A"),
		CreditorSchemeID:  cmdutil.PointerOf("NL12ZZZ123456780000"),
		NotificationEmail: cmdutil.PointerOf("admin@harbor.local"),
		CreatedAt:         now,
		UpdatedAt:         now,
	}).Error; err != nil {
		return err
	}

	if err := create.Create(&member.Member{
		ID:        harborMemberID,
		Name:      "Fleur de Vries",
		Email:     "fleur.devries@harbor.local",
		OrgID:     harborOrgID.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}).Error; err != nil {
		return err
	}

	signedAt, _ := timeutil.ParseDate("2024-09-01")
	if err := create.Create(&mandate.Mandate{
		ID:            harborMandate,
		MemberID:      harborMemberID,
		IBAN:          "NL39RABO0300065264",
		BIC:           "RABONL2U",
		AccountHolder: "Fleur de Vries",
		Reference:     "HRBR-2024-0042",
		SignedAt:      signedAt,
		Status:        mandate.StatusActive,
		OrgID:         harborOrgID.String(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}).Error; err != nil {
		return err
	}

	issuedAt, _ := timeutil.ParseDate("2026-08-01")
	return create.Create(&ledger.Invoice{
		ID:        uuid.MustParse("22222222-0000-0000-0000-000000000301"),
		MemberID:  harborMemberID,
		Number:    "INV-2026-0107",
		Amount:    decimal.RequireFromString("120.00"),
		IssuedAt:  issuedAt,
		DueAt:     timeutil.DateNow(),
		OrgID:     harborOrgID.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}).Error
}

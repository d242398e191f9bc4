package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dojoware/collect/internal/timeutil"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) Service {
	return Service{db: db}
}

// Outstanding returns each member's unpaid balance in the given category up
// to the cutoff date, one entry per member, ordered by member id.
func (s Service) Outstanding(ctx context.Context, orgID string, category Category, cutoff timeutil.Date) ([]Outstanding, error) {
	type row struct {
		ID       uuid.UUID
		MemberID uuid.UUID
		Amount   decimal.Decimal
	}

	var rows []row
	query := s.db.WithContext(ctx).
		Where("org_id = ? AND paid_at IS NULL", orgID).
		Order("member_id ASC, id ASC")

	switch category {
	case CategoryDues:
		query = query.Model(&Due{}).Where("due_at <= ?", cutoff)
	case CategoryInvoices:
		query = query.Model(&Invoice{}).Where("due_at <= ?", cutoff)
	case CategorySales:
		query = query.Model(&Sale{}).Where("sold_at <= ?", cutoff)
	default:
		return nil, ErrUnknownCategory
	}

	if err := query.Select("id, member_id, amount").Scan(&rows).Error; err != nil {
		return nil, err
	}

	var result []Outstanding
	for _, r := range rows {
		if n := len(result); n > 0 && result[n-1].MemberID == r.MemberID {
			result[n-1].Amount = result[n-1].Amount.Add(r.Amount)
			result[n-1].SourceIDs = append(result[n-1].SourceIDs, r.ID)
			continue
		}
		result = append(result, Outstanding{
			MemberID:  r.MemberID,
			Category:  category,
			Amount:    r.Amount,
			SourceIDs: []uuid.UUID{r.ID},
		})
	}
	return result, nil
}

// MarkPaid settles the referenced ledger rows. Rows already paid are left
// untouched so replays cannot move a settlement timestamp.
func (s Service) MarkPaid(ctx context.Context, orgID string, refs []SourceRef, paidAt timeutil.DateTime) error {
	byCategory := map[Category][]uuid.UUID{}
	for _, ref := range refs {
		byCategory[ref.Category] = append(byCategory[ref.Category], ref.ID)
	}

	for category, ids := range byCategory {
		var model any
		switch category {
		case CategoryDues:
			model = &Due{}
		case CategoryInvoices:
			model = &Invoice{}
		case CategorySales:
			model = &Sale{}
		default:
			return ErrUnknownCategory
		}

		if err := s.db.WithContext(ctx).
			Model(model).
			Where("id IN ? AND org_id = ? AND paid_at IS NULL", ids, orgID).
			Updates(map[string]any{
				"paid_at":    paidAt.Time,
				"updated_at": timeutil.DateTimeNow().Time,
			}).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateOpenPayment inserts a remediation row. The unique reference makes
// the call idempotent: re-applying the same failure or dispute is a no-op.
func (s Service) CreateOpenPayment(ctx context.Context, op *OpenPayment) error {
	op.Status = OpenPaymentStatusOpen
	op.CreatedAt = timeutil.DateTimeNow()
	op.UpdatedAt = op.CreatedAt
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "org_id"}, {Name: "reference"}},
			DoNothing: true,
		}).
		Create(op).Error
}

// ResolveOpenPayment closes, not deletes, the remediation row for the given
// reference.
func (s Service) ResolveOpenPayment(ctx context.Context, orgID, reference string) error {
	result := s.db.WithContext(ctx).
		Model(&OpenPayment{}).
		Where("org_id = ? AND reference = ? AND status = ?", orgID, reference, OpenPaymentStatusOpen).
		Updates(map[string]any{
			"status":     OpenPaymentStatusResolved,
			"updated_at": timeutil.DateTimeNow().Time,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOpenPaymentNotFound
	}
	return nil
}

func (s Service) OpenPaymentByReference(ctx context.Context, orgID, reference string) (*OpenPayment, error) {
	op := &OpenPayment{}
	if err := s.db.WithContext(ctx).
		First(op, "org_id = ? AND reference = ?", orgID, reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOpenPaymentNotFound
		}
		return nil, err
	}
	return op, nil
}

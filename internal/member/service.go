package member

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dojoware/collect/internal/page"
	"github.com/dojoware/collect/internal/timeutil"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) Service {
	return Service{db: db}
}

func (s Service) Member(ctx context.Context, id, orgID string) (*Member, error) {
	m := &Member{}
	if err := s.db.WithContext(ctx).First(m, "id = ? AND org_id = ?", id, orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s Service) Members(ctx context.Context, orgID string, pag page.Pagination) (page.Page[*Member], error) {
	query := s.db.WithContext(ctx).Model(&Member{}).Where("org_id = ?", orgID)

	var members []*Member
	if err := query.
		Limit(pag.Limit()).
		Offset(pag.Offset()).
		Order("name ASC").
		Find(&members).Error; err != nil {
		return page.Page[*Member]{}, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return page.Page[*Member]{}, err
	}

	return page.New(members, pag, int(total)), nil
}

func (s Service) Save(ctx context.Context, m *Member) error {
	m.UpdatedAt = timeutil.DateTimeNow()
	return s.db.WithContext(ctx).Omit("CreatedAt").Save(m).Error
}

// FlagPaymentProblem marks the member so admins see the failed collection.
// The reason is human readable and shown verbatim.
func (s Service) FlagPaymentProblem(ctx context.Context, id, orgID, reason string) error {
	return s.db.WithContext(ctx).
		Model(&Member{}).
		Where("id = ? AND org_id = ?", id, orgID).
		Updates(map[string]any{
			"payment_problem":        true,
			"payment_problem_reason": reason,
			"updated_at":             timeutil.DateTimeNow().Time,
		}).Error
}

func (s Service) ClearPaymentProblem(ctx context.Context, id, orgID string) error {
	return s.db.WithContext(ctx).
		Model(&Member{}).
		Where("id = ? AND org_id = ?", id, orgID).
		Updates(map[string]any{
			"payment_problem":        false,
			"payment_problem_reason": nil,
			"updated_at":             timeutil.DateTimeNow().Time,
		}).Error
}

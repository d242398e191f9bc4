package mandate

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dojoware/collect/internal/timeutil"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) Service {
	return Service{db: db}
}

func (s Service) Mandate(ctx context.Context, id, orgID string) (*Mandate, error) {
	m := &Mandate{}
	if err := s.db.WithContext(ctx).First(m, "id = ? AND org_id = ?", id, orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s Service) ActiveForMember(ctx context.Context, memberID uuid.UUID, orgID string) (*Mandate, error) {
	m := &Mandate{}
	if err := s.db.WithContext(ctx).
		First(m, "member_id = ? AND org_id = ? AND status = ?", memberID, orgID, StatusActive).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// EligibleForOrg returns the active mandates of a tenant joined with each
// member's gateway identity, ordered by member id so repeated runs over
// unchanged data produce identical batches.
func (s Service) EligibleForOrg(ctx context.Context, orgID string) ([]*Eligible, error) {
	var eligible []*Eligible
	if err := s.db.WithContext(ctx).
		Table("mandates").
		Select("mandates.*, members.name AS member_name, members.gateway_customer_id").
		Joins("JOIN members ON members.id = mandates.member_id AND members.org_id = mandates.org_id").
		Where("mandates.org_id = ? AND mandates.status = ?", orgID, StatusActive).
		Order("mandates.member_id ASC").
		Find(&eligible).Error; err != nil {
		return nil, err
	}
	return eligible, nil
}

func (s Service) Save(ctx context.Context, m *Mandate) error {
	m.UpdatedAt = timeutil.DateTimeNow()
	return s.db.WithContext(ctx).Omit("CreatedAt").Save(m).Error
}

// Revoke ends the mandate so future collection runs skip the member.
func (s Service) Revoke(ctx context.Context, id uuid.UUID, orgID, reason string) error {
	result := s.db.WithContext(ctx).
		Model(&Mandate{}).
		Where("id = ? AND org_id = ? AND status = ?", id, orgID, StatusActive).
		Updates(map[string]any{
			"status":         StatusRevoked,
			"revoked_reason": reason,
			"updated_at":     timeutil.DateTimeNow().Time,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyRevoked
	}
	return nil
}

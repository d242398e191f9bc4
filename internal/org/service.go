package org

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dojoware/collect/internal/timeutil"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) Service {
	return Service{db: db}
}

func (s Service) Org(ctx context.Context, id string) (*Org, error) {
	o := &Org{}
	if err := s.db.WithContext(ctx).First(o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (s Service) Orgs(ctx context.Context) ([]*Org, error) {
	var orgs []*Org
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (s Service) Save(ctx context.Context, o *Org) error {
	o.UpdatedAt = timeutil.DateTimeNow()
	return s.db.WithContext(ctx).Omit("CreatedAt").Save(o).Error
}

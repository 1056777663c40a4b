package service

import (
	"context"

	"github.com/smallbiznis/creditdash/internal/reference/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type service struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(p Params) domain.Service {
	return &service{db: p.DB, log: p.Log}
}

func (s *service) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	var plans []domain.Plan
	if err := s.db.WithContext(ctx).Order("name asc").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *service) IsValidPlan(ctx context.Context, name string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.Plan{}).
		Where("name = ?", name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

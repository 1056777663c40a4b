package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/creditdash/internal/clock"
	"github.com/smallbiznis/creditdash/internal/settings/domain"
	"github.com/smallbiznis/creditdash/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &service{db: p.DB, log: p.Log, genID: p.GenID, clock: p.Clock}
}

func (s *service) List(ctx context.Context, category string) ([]domain.Setting, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidUser
	}

	stmt := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if category = strings.TrimSpace(category); category != "" {
		stmt = stmt.Where("category = ?", category)
	}

	var settings []domain.Setting
	// "key" is reserved in MySQL, so the columns must be quoted.
	err := stmt.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "category"}}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *service) Upsert(ctx context.Context, req domain.UpsertSettingRequest) (domain.Setting, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.Setting{}, domain.ErrInvalidUser
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return domain.Setting{}, domain.ErrInvalidCategory
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return domain.Setting{}, domain.ErrInvalidKey
	}

	now := s.clock.Now()
	setting := domain.Setting{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Category:  category,
		Key:       key,
		Value:     req.Value,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "category"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
	if err != nil {
		s.log.Error("failed to upsert setting", zap.Error(err))
		return domain.Setting{}, err
	}

	var persisted domain.Setting
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND category = ? AND key = ?", userID, category, key).
		First(&persisted).Error
	if err != nil {
		return domain.Setting{}, err
	}
	return persisted, nil
}

func (s *service) UpsertMany(ctx context.Context, category string, values map[string]*string) ([]domain.Setting, error) {
	settings := make([]domain.Setting, 0, len(values))
	for key, value := range values {
		setting, err := s.Upsert(ctx, domain.UpsertSettingRequest{
			Category: category,
			Key:      key,
			Value:    value,
		})
		if err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}

	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}

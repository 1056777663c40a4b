package selection

import (
	"context"
	"encoding/json"

	settingsdomain "github.com/smallbiznis/creditdash/internal/settings/domain"
	"github.com/smallbiznis/creditdash/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	settingCategory = "dashboard"
	settingKey      = "last_usage_selection"
)

type gormStore struct {
	settings settingsdomain.Service
	log      *zap.Logger
}

type StoreParams struct {
	fx.In

	Settings settingsdomain.Service
	Log      *zap.Logger
}

// NewStore persists selections as a JSON setting under the dashboard
// category, one row per user.
func NewStore(p StoreParams) Store {
	return &gormStore{settings: p.Settings, log: p.Log}
}

func (s *gormStore) Save(ctx context.Context, sel Selection) error {
	encoded, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	value := string(encoded)

	_, err = s.settings.Upsert(ctx, settingsdomain.UpsertSettingRequest{
		Category: settingCategory,
		Key:      settingKey,
		Value:    &value,
	})
	if err == settingsdomain.ErrInvalidUser {
		return ErrInvalidUser
	}
	return err
}

func (s *gormStore) Load(ctx context.Context) (*Selection, error) {
	if _, ok := usercontext.UserIDFromContext(ctx); !ok {
		return nil, ErrInvalidUser
	}

	settings, err := s.settings.List(ctx, settingCategory)
	if err != nil {
		if err == settingsdomain.ErrInvalidUser {
			return nil, ErrInvalidUser
		}
		return nil, err
	}

	for _, setting := range settings {
		if setting.Key != settingKey || setting.Value == nil {
			continue
		}
		var sel Selection
		if err := json.Unmarshal([]byte(*setting.Value), &sel); err != nil {
			s.log.Warn("discarding malformed saved selection", zap.Error(err))
			return nil, nil
		}
		return &sel, nil
	}
	return nil, nil
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Setting is one user preference, addressed by (category, key). The value
// is an opaque string, typically JSON.
type Setting struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:uidx_settings_user_category_key" json:"-"`
	Category  string       `gorm:"not null;uniqueIndex:uidx_settings_user_category_key" json:"category"`
	Key       string       `gorm:"not null;uniqueIndex:uidx_settings_user_category_key" json:"key"`
	Value     *string      `gorm:"column:value" json:"value"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Setting) TableName() string { return "settings" }

type UpsertSettingRequest struct {
	Category string
	Key      string  `json:"key"`
	Value    *string `json:"value"`
}

type Service interface {
	List(ctx context.Context, category string) ([]Setting, error)
	Upsert(ctx context.Context, req UpsertSettingRequest) (Setting, error)
	// UpsertMany writes a whole category page in one call, last writer wins
	// per key.
	UpsertMany(ctx context.Context, category string, values map[string]*string) ([]Setting, error)
}

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidKey      = errors.New("invalid_key")
)

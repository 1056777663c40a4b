package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/creditdash/internal/clock"
	"github.com/smallbiznis/creditdash/internal/settings/domain"
	"github.com/smallbiznis/creditdash/internal/usercontext"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupSettingsService(t *testing.T) (domain.Service, context.Context) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.Exec(`CREATE TABLE settings (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		category TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`).Error; err != nil {
		t.Fatalf("create settings: %v", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX uidx_settings_user_category_key
		ON settings (user_id, category, key)`).Error; err != nil {
		t.Fatalf("create settings index: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)),
	})
	ctx := usercontext.WithUserID(context.Background(), int64(node.Generate()))
	return svc, ctx
}

func strptr(s string) *string { return &s }

func TestUpsertInsertsThenUpdates(t *testing.T) {
	svc, ctx := setupSettingsService(t)

	first, err := svc.Upsert(ctx, domain.UpsertSettingRequest{
		Category: "dashboard",
		Key:      "theme",
		Value:    strptr("dark"),
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.Value == nil || *first.Value != "dark" {
		t.Fatalf("unexpected value after insert: %+v", first.Value)
	}

	second, err := svc.Upsert(ctx, domain.UpsertSettingRequest{
		Category: "dashboard",
		Key:      "theme",
		Value:    strptr("light"),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.Value == nil || *second.Value != "light" {
		t.Fatalf("unexpected value after update: %+v", second.Value)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert must keep the original row, got %s vs %s", first.ID, second.ID)
	}

	settings, err := svc.List(ctx, "dashboard")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(settings) != 1 {
		t.Fatalf("expected a single row after upsert, got %d", len(settings))
	}
}

func TestUpsertValidation(t *testing.T) {
	svc, ctx := setupSettingsService(t)

	if _, err := svc.Upsert(ctx, domain.UpsertSettingRequest{Key: "k"}); err != domain.ErrInvalidCategory {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := svc.Upsert(ctx, domain.UpsertSettingRequest{Category: "c"}); err != domain.ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := svc.Upsert(context.Background(), domain.UpsertSettingRequest{Category: "c", Key: "k"}); err != domain.ErrInvalidUser {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}

func TestUpsertManyWritesEveryKey(t *testing.T) {
	svc, ctx := setupSettingsService(t)

	settings, err := svc.UpsertMany(ctx, "dashboard", map[string]*string{
		"theme":    strptr("dark"),
		"currency": strptr("USD"),
	})
	if err != nil {
		t.Fatalf("upsert many: %v", err)
	}
	if len(settings) != 2 {
		t.Fatalf("expected 2 settings, got %d", len(settings))
	}
	if settings[0].Key != "currency" || settings[1].Key != "theme" {
		t.Fatalf("expected keys sorted, got %+v", settings)
	}

	settings, err = svc.UpsertMany(ctx, "dashboard", map[string]*string{"theme": strptr("light")})
	if err != nil {
		t.Fatalf("second upsert many: %v", err)
	}
	if len(settings) != 1 || settings[0].Value == nil || *settings[0].Value != "light" {
		t.Fatalf("unexpected settings after update: %+v", settings)
	}

	all, err := svc.List(ctx, "dashboard")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows after updates, got %d", len(all))
	}
}

func TestListOrdersByCategoryThenKey(t *testing.T) {
	svc, ctx := setupSettingsService(t)

	for _, req := range []domain.UpsertSettingRequest{
		{Category: "general", Key: "timezone", Value: strptr("UTC")},
		{Category: "branding", Key: "logo", Value: strptr("logo.png")},
		{Category: "general", Key: "currency", Value: strptr("USD")},
	} {
		if _, err := svc.Upsert(ctx, req); err != nil {
			t.Fatalf("upsert %s/%s: %v", req.Category, req.Key, err)
		}
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := make([]string, 0, len(all))
	for _, s := range all {
		got = append(got, s.Category+"/"+s.Key)
	}
	want := []string{"branding/logo", "general/currency", "general/timezone"}
	if len(got) != len(want) {
		t.Fatalf("expected %d settings, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
}

func TestListScopedToUserAndCategory(t *testing.T) {
	svc, ctx := setupSettingsService(t)

	for _, req := range []domain.UpsertSettingRequest{
		{Category: "dashboard", Key: "a", Value: strptr("1")},
		{Category: "notifications", Key: "b", Value: strptr("2")},
	} {
		if _, err := svc.Upsert(ctx, req); err != nil {
			t.Fatalf("upsert %s/%s: %v", req.Category, req.Key, err)
		}
	}

	dashboard, err := svc.List(ctx, "dashboard")
	if err != nil {
		t.Fatalf("list dashboard: %v", err)
	}
	if len(dashboard) != 1 || dashboard[0].Key != "a" {
		t.Fatalf("unexpected dashboard settings: %+v", dashboard)
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 settings, got %d", len(all))
	}

	node, _ := snowflake.NewNode(2)
	otherCtx := usercontext.WithUserID(context.Background(), int64(node.Generate()))
	other, err := svc.List(otherCtx, "")
	if err != nil {
		t.Fatalf("list other user: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no settings for other user, got %d", len(other))
	}
}

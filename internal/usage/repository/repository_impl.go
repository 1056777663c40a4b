package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/creditdash/internal/usage/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Replace deletes the cached rows covering the window and inserts the new
// set in one transaction, so readers never observe a half-written window.
func (r *repo) Replace(ctx context.Context, db *gorm.DB, userID, customerID snowflake.ID, window domain.Window, records []domain.UsageRecord) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`DELETE FROM usage_records
			 WHERE user_id = ? AND customer_id = ? AND date >= ? AND date <= ?`,
			userID, customerID, window.Start, window.End,
		).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
}

func (r *repo) Read(ctx context.Context, db *gorm.DB, userID, customerID snowflake.ID, window domain.Window) ([]domain.UsageRecord, error) {
	var records []domain.UsageRecord
	err := db.WithContext(ctx).
		Where("user_id = ? AND customer_id = ? AND date >= ? AND date <= ?",
			userID, customerID, window.Start, window.End).
		Order("date asc, credit_type asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

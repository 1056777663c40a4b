package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/creditdash/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID snowflake.ID, cursor *domain.CustomerCursor, limit int) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	stmt := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("user_id = ?", userID)

	if cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	if limit > 0 {
		// fetch one extra row to detect a next page
		stmt = stmt.Limit(limit + 1)
	}

	err := stmt.
		Order("created_at desc, id desc").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("user_id = ? AND id = ?", customer.UserID, customer.ID).
		Select("name", "api_key", "managed_account_id", "customer_number",
			"plan", "email", "opening_credit", "current_credit", "metadata", "updated_at").
		Updates(customer).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// drop the customer's cached usage rows alongside the credential record
		if err := tx.Exec(
			`DELETE FROM usage_records WHERE user_id = ? AND customer_id = ?`, userID, id,
		).Error; err != nil {
			return err
		}
		return tx.Exec(
			`DELETE FROM customers WHERE user_id = ? AND id = ?`, userID, id,
		).Error
	})
}

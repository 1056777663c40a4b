package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ProviderCredentials identify the managed account whose usage is queried.
type ProviderCredentials struct {
	APIKey           string
	ManagedAccountID string
}

// ProviderRecord is one usage line as reported by the billing API.
type ProviderRecord struct {
	Date       string
	CreditType string
	Quantity   int64
	Cost       float64
}

// ProviderTotals are the aggregate figures the billing API reports for a
// window. When present they take precedence over sums computed locally.
type ProviderTotals struct {
	TotalQuantity int64
	TotalCost     float64
}

// UsageProvider is the outbound port to the billing API.
type UsageProvider interface {
	FetchUsage(ctx context.Context, creds ProviderCredentials, window Window) ([]ProviderRecord, *ProviderTotals, error)
}

type Service interface {
	Fetch(context.Context, FetchRequest) (FetchResult, error)
	Export(context.Context, ExportRequest) (Export, error)
}

type Repository interface {
	// Replace swaps the cached rows for the window with the given set,
	// atomically.
	Replace(ctx context.Context, db *gorm.DB, userID, customerID snowflake.ID, window Window, records []UsageRecord) error
	Read(ctx context.Context, db *gorm.DB, userID, customerID snowflake.ID, window Window) ([]UsageRecord, error)
}

var (
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidCustomer  = errors.New("invalid_customer")
	ErrInvalidDate      = errors.New("invalid_date")
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrCustomerNotFound = errors.New("customer_not_found")
)

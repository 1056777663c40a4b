package selection

import (
	"context"
	"errors"
)

// Selection remembers the customer and date range the user last queried,
// so the dashboard can restore it on the next visit.
type Selection struct {
	CustomerID string `json:"customerId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

// Store persists the last selection per user. Load returns nil when the
// user has no saved selection yet.
type Store interface {
	Save(ctx context.Context, sel Selection) error
	Load(ctx context.Context) (*Selection, error)
}

var ErrInvalidUser = errors.New("invalid_user")

package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/creditdash/internal/customer/domain"
	referencedomain "github.com/smallbiznis/creditdash/internal/reference/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// demoUserID is the fixed account demo data is attached to. Local tokens
// with subject "1" see the seeded customers.
const demoUserID snowflake.ID = 1

// EnsurePlans inserts the reference billing plans if they are missing.
func EnsurePlans(conn *gorm.DB, node *snowflake.Node) error {
	plans := []referencedomain.Plan{
		{Name: "Enterprise (USD)", Currency: "USD", SurchargePercent: 0},
		{Name: "Growth (USD+5%)", Currency: "USD", SurchargePercent: 5},
	}

	now := time.Now().UTC()
	for i := range plans {
		plans[i].ID = node.Generate()
		plans[i].CreatedAt = now
	}

	return conn.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&plans).Error
}

// EnsureDemoCustomers inserts two sample customers for local development.
func EnsureDemoCustomers(conn *gorm.DB, node *snowflake.Node) error {
	var count int64
	err := conn.Model(&customerdomain.Customer{}).
		Where("user_id = ?", demoUserID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	planA := "Enterprise (USD)"
	planB := "Growth (USD+5%)"
	now := time.Now().UTC()
	customers := []customerdomain.Customer{
		{
			ID:               node.Generate(),
			UserID:           demoUserID,
			Name:             "Customer A",
			APIKey:           "demo_key_a",
			ManagedAccountID: "demo_mgmt_a",
			Plan:             &planA,
			OpeningCredit:    500,
			CurrentCredit:    500,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:               node.Generate(),
			UserID:           demoUserID,
			Name:             "Customer B",
			APIKey:           "demo_key_b",
			ManagedAccountID: "demo_mgmt_b",
			Plan:             &planB,
			OpeningCredit:    250,
			CurrentCredit:    250,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}
	return conn.Create(&customers).Error
}

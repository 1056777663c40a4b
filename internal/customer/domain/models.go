package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Customer is a credential and billing-profile record used to query the
// provider's usage API on behalf of a managed account.
type Customer struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID           snowflake.ID      `gorm:"not null;index" json:"-"`
	Name             string            `gorm:"not null" json:"name"`
	APIKey           string            `gorm:"column:api_key;not null" json:"api_key"`
	ManagedAccountID string            `gorm:"column:managed_account_id;not null" json:"managed_account_id"`
	CustomerNumber   *string           `gorm:"column:customer_number" json:"customer_number,omitempty"`
	Plan             *string           `gorm:"column:plan" json:"plan,omitempty"`
	Email            *string           `gorm:"column:email" json:"email,omitempty"`
	OpeningCredit    float64           `gorm:"column:opening_credit;not null;default:0" json:"opening_credit"`
	CurrentCredit    float64           `gorm:"column:current_credit;not null;default:0" json:"current_credit"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

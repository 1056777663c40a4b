package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Plan is a reference billing plan customers can be assigned to. The
// surcharge percent is applied on top of provider cost when invoicing.
type Plan struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	Name             string       `gorm:"not null;uniqueIndex" json:"name"`
	Currency         string       `gorm:"not null;default:USD" json:"currency"`
	SurchargePercent float64      `gorm:"column:surcharge_percent;not null;default:0" json:"surcharge_percent"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

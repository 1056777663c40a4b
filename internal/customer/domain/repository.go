package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CustomerCursor marks the position of the last row of the previous page.
type CustomerCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID, cursor *CustomerCursor, limit int) ([]*Customer, error)
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement types.
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// StockMovement is an append-only ledger entry recording one stock change.
// Product name and SKU are denormalized at record time: a later product
// rename does not rewrite history.
type StockMovement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Date        time.Time `gorm:"index;not null"`
	Type        string    `gorm:"type:varchar(3);not null"` // IN | OUT
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductName string    `gorm:"not null"`
	SKU         string    `gorm:"not null"`
	Qty         int       `gorm:"not null"` // always positive; direction is Type
	Note        string

	CreatedAt time.Time
}

// TableName matches the dashboard's collection name.
func (StockMovement) TableName() string { return "stock_movements" }

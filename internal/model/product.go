package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. SKUs are stored upper-cased and must be unique
// case-insensitively; Stock never goes below zero after a committed operation —
// enforced by the services that mutate it, not by the store.
type Product struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU      string    `gorm:"uniqueIndex;not null"`
	Barcode  string
	Name     string `gorm:"index;not null"`
	Category string `gorm:"not null"`
	Brand    string
	Cost     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Price    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock    int             `gorm:"not null;default:0"`
	MinStock int             `gorm:"not null;default:0"`
	Active   bool            `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

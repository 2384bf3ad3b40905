package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fulfillment types.
const (
	FulfillmentDelivery = "delivery"
	FulfillmentPickup   = "pickup"
)

// Order is the authoritative root of the fulfillment lifecycle:
//
//	created (paid=false) ⇄ paid (togglePaid, only while delivered=false)
//	paid → delivered (markDelivered, terminal)
//
// Orders are created atomically with their stock decrement and OUT movement
// entries, and are never deleted.
type Order struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderNumber      string    `gorm:"index;not null"` // human-readable, time-derived
	ReceiverName     string    `gorm:"not null"`
	ReceiverPhone    string    `gorm:"not null"`
	ReceiverEmail    *string
	Total            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	OrderDate        time.Time       `gorm:"index;not null"`
	FulfillmentType  string          `gorm:"type:varchar(10);not null"` // delivery | pickup
	DeliveryLocation *string
	Paid             bool `gorm:"not null;default:false"`
	Delivered        bool `gorm:"not null;default:false"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem is one merged line of an order: at most one per distinct product.
type OrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductName string    `gorm:"not null"`
	SKU         string    `gorm:"not null"`
	Category    string
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Delivery statuses.
const (
	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
)

// Delivery holds only the delivery-owned state for a delivery-type order.
// Receiver, items, total and paid are projected from the source Order on
// every read, so they can never diverge from it. The row is keyed by the
// order id and exists only for fulfillment_type=delivery orders; pending
// rows missed at order creation are backfilled by the reconcile cron.
type Delivery struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"` // = order id
	OrderID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Status      string    `gorm:"type:varchar(10);not null;default:'pending'"` // pending | delivered
	DriverPhone *string
	DeliveredAt *time.Time
	CreatedAt   time.Time

	Order *Order `gorm:"foreignKey:OrderID"`
}

// TableName matches the dashboard's collection name.
func (Delivery) TableName() string { return "deliveries" }

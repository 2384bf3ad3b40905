package repository

import (
	"context"
	"time"

	"propshop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryRepository interface {
	Create(ctx context.Context, d *model.Delivery) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Delivery, error)
	// ListWithOrders returns all delivery rows joined with their source
	// orders, newest first. The order association is always populated.
	ListWithOrders(ctx context.Context) ([]model.Delivery, error)
	MarkDelivered(ctx context.Context, orderID uuid.UUID, driverPhone string, at time.Time) error
}

type deliveryRepo struct{ db *gorm.DB }

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository { return &deliveryRepo{db: db} }

func (r *deliveryRepo) Create(ctx context.Context, d *model.Delivery) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *deliveryRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Delivery, error) {
	var d model.Delivery
	err := r.db.WithContext(ctx).
		Preload("Order").Preload("Order.Items").
		Where("order_id = ?", orderID).
		First(&d).Error
	return &d, err
}

func (r *deliveryRepo) ListWithOrders(ctx context.Context) ([]model.Delivery, error) {
	var deliveries []model.Delivery
	err := r.db.WithContext(ctx).
		Preload("Order").Preload("Order.Items").
		Order("created_at DESC").
		Find(&deliveries).Error
	return deliveries, err
}

// MarkDelivered writes the terminal state. When the pending row is missing
// (its create at order time is non-fatal and may have failed), the row is
// inserted here instead of waiting for reconcile, which would not know the
// driver phone or timestamp.
func (r *deliveryRepo) MarkDelivered(ctx context.Context, orderID uuid.UUID, driverPhone string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Delivery{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":       model.DeliveryDelivered,
			"driver_phone": driverPhone,
			"delivered_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.db.WithContext(ctx).Create(&model.Delivery{
			ID:          orderID,
			OrderID:     orderID,
			Status:      model.DeliveryDelivered,
			DriverPhone: &driverPhone,
			DeliveredAt: &at,
			CreatedAt:   at,
		}).Error
	}
	return nil
}

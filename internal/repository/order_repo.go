package repository

import (
	"context"

	"propshop/internal/dto"
	"propshop/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	SetPaid(ctx context.Context, id uuid.UUID, paid bool) error
	SetDelivered(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, paid, delivered bool) (int64, error)

	// ListDeliveryOrdersWithoutRecord returns committed delivery-type orders
	// that have no row in deliveries — input for the reconcile job.
	ListDeliveryOrdersWithoutRecord(ctx context.Context, limit int) ([]model.Order, error)

	// DB exposes the DB for transaction creation in the service layer.
	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) Create(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return tx.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Order{})

	switch filter.Status {
	case "pending":
		q = q.Where("paid = false AND delivered = false")
	case "paid":
		q = q.Where("paid = true AND delivered = false")
	case "delivered":
		q = q.Where("delivered = true")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").
		Order("order_date DESC, created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error
	return orders, total, err
}

// ListAll returns every order, newest first — the snapshot shape the change
// feed delivers and the input for the reports.
func (r *orderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Order("order_date DESC, created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) SetPaid(ctx context.Context, id uuid.UUID, paid bool) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Update("paid", paid).Error
}

func (r *orderRepo) SetDelivered(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Update("delivered", true).Error
}

func (r *orderRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&n).Error
	return n, err
}

func (r *orderRepo) CountByStatus(ctx context.Context, paid, delivered bool) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("paid = ? AND delivered = ?", paid, delivered).
		Count(&n).Error
	return n, err
}

func (r *orderRepo) ListDeliveryOrdersWithoutRecord(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("fulfillment_type = ?", model.FulfillmentDelivery).
		Where("id NOT IN (SELECT order_id FROM deliveries)").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

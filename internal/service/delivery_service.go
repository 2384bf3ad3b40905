package service

import (
	"context"

	"propshop/internal/dto"
	"propshop/internal/model"
	"propshop/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DeliveryService serves the delivery board. Every response is a projection:
// delivery rows carry only status, driver phone and timestamps, and the rest
// is read from the source order at request time.
type DeliveryService interface {
	List(ctx context.Context) ([]dto.DeliveryResponse, error)
	Get(ctx context.Context, orderID uuid.UUID) (*dto.DeliveryResponse, error)
	// Reconcile backfills pending delivery rows for committed delivery-type
	// orders that lost theirs. Called by the cron and exposed as an admin
	// endpoint for manual runs.
	Reconcile(ctx context.Context) (*dto.ReconcileResponse, error)
}

type deliveryService struct {
	repo      repository.DeliveryRepository
	orderRepo repository.OrderRepository
	notifier  ChangeNotifier
}

func NewDeliveryService(
	repo repository.DeliveryRepository,
	orderRepo repository.OrderRepository,
	notifier ChangeNotifier,
) DeliveryService {
	return &deliveryService{repo: repo, orderRepo: orderRepo, notifier: notifier}
}

func (s *deliveryService) List(ctx context.Context) ([]dto.DeliveryResponse, error) {
	deliveries, err := s.repo.ListWithOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DeliveryResponse, 0, len(deliveries))
	for i := range deliveries {
		d := &deliveries[i]
		if d.Order == nil {
			// Orphan row: its order vanished. Skip rather than fail the board.
			log.Warn().Str("order_id", d.OrderID.String()).Msg("delivery row without source order")
			continue
		}
		out = append(out, deliveryToResponse(d))
	}
	return out, nil
}

func (s *deliveryService) Get(ctx context.Context, orderID uuid.UUID) (*dto.DeliveryResponse, error) {
	d, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil || d.Order == nil {
		return nil, ErrNotFound
	}
	resp := deliveryToResponse(d)
	return &resp, nil
}

func (s *deliveryService) Reconcile(ctx context.Context) (*dto.ReconcileResponse, error) {
	orders, err := s.orderRepo.ListDeliveryOrdersWithoutRecord(ctx, 200)
	if err != nil {
		return nil, err
	}

	created := 0
	for i := range orders {
		o := &orders[i]
		d := &model.Delivery{
			ID:        o.ID,
			OrderID:   o.ID,
			Status:    model.DeliveryPending,
			CreatedAt: o.OrderDate,
		}
		if o.Delivered {
			// The order finished its lifecycle while the row was missing.
			d.Status = model.DeliveryDelivered
		}
		if err := s.repo.Create(ctx, d); err != nil {
			log.Error().Str("order_id", o.ID.String()).Err(err).Msg("reconcile: create delivery row failed")
			continue
		}
		created++
	}

	if created > 0 && s.notifier != nil {
		s.notifier.Notify(ctx, CollectionDeliveries)
	}
	return &dto.ReconcileResponse{Created: created}, nil
}

// deliveryToResponse merges the delivery row with its source order. The
// order association must be populated.
func deliveryToResponse(d *model.Delivery) dto.DeliveryResponse {
	o := d.Order
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Category:    item.Category,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}

	var location string
	if o.DeliveryLocation != nil {
		location = *o.DeliveryLocation
	}
	var deliveredAt *string
	if d.DeliveredAt != nil {
		v := d.DeliveredAt.Format("2006-01-02 15:04")
		deliveredAt = &v
	}

	return dto.DeliveryResponse{
		ID:               d.ID.String(),
		OrderID:          d.OrderID.String(),
		OrderNumber:      o.OrderNumber,
		ReceiverName:     o.ReceiverName,
		ReceiverPhone:    o.ReceiverPhone,
		ReceiverEmail:    o.ReceiverEmail,
		DeliveryLocation: location,
		Items:            items,
		Total:            o.Total,
		OrderDate:        o.OrderDate.Format("2006-01-02"),
		Paid:             o.Paid,
		Status:           d.Status,
		DriverPhone:      d.DriverPhone,
		CreatedAt:        d.CreatedAt.Format("2006-01-02 15:04"),
		DeliveredAt:      deliveredAt,
	}
}

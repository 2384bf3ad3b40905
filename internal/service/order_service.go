package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"propshop/internal/dto"
	"propshop/internal/model"
	"propshop/internal/repository"
	"propshop/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Collection names published to the change feed after successful writes.
const (
	CollectionProducts   = "products"
	CollectionMovements  = "stock_movements"
	CollectionOrders     = "orders"
	CollectionDeliveries = "deliveries"
)

// ChangeNotifier is implemented by feed.Hub. A nil notifier is a no-op
// (unit test mode).
type ChangeNotifier interface {
	Notify(ctx context.Context, collection string)
}

// OrderService is the order lifecycle manager: order creation with stock
// reservation, the paid/delivered state machine, and the derived delivery
// record for delivery-type orders.
type OrderService interface {
	Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	TogglePaid(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, driverPhone string) (*dto.OrderResponse, error)
}

type orderService struct {
	repo         repository.OrderRepository
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	deliveryRepo repository.DeliveryRepository
	dispatcher   *worker.Dispatcher
	notifier     ChangeNotifier
}

func NewOrderService(
	repo repository.OrderRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.MovementRepository,
	deliveryRepo repository.DeliveryRepository,
	dispatcher *worker.Dispatcher,
	notifier ChangeNotifier,
) OrderService {
	return &orderService{
		repo:         repo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		deliveryRepo: deliveryRepo,
		dispatcher:   dispatcher,
		notifier:     notifier,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func (s *orderService) notify(ctx context.Context, collections ...string) {
	if s.notifier == nil {
		return
	}
	for _, c := range collections {
		s.notifier.Notify(ctx, c)
	}
}

// ── Create ────────────────────────────────────────────────────────────────────
// Order creation:
//  1. Validate receiver fields and line requests, merge duplicate product lines
//  2. Resolve every product, check stock per merged line (whole-order reject)
//  3. BEGIN TX: create order+items, decrement stock, append OUT movements
//  4. COMMIT
//  5. Delivery orders: create pending delivery row — non-fatal, reconciled later
//  6. (async) dispatch receipt job when a receiver email is present

func (s *orderService) Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	receiverName := strings.TrimSpace(req.ReceiverName)
	receiverPhone := strings.TrimSpace(req.ReceiverPhone)
	if receiverName == "" || receiverPhone == "" {
		return nil, validationf("receiver name and phone are required")
	}

	var deliveryLocation string
	if req.FulfillmentType == model.FulfillmentDelivery {
		if req.DeliveryLocation != nil {
			deliveryLocation = strings.TrimSpace(*req.DeliveryLocation)
		}
		if deliveryLocation == "" {
			return nil, validationf("delivery location is required for delivery orders")
		}
	}

	if len(req.Items) == 0 {
		return nil, validationf("an order needs at least one line")
	}

	// Merge duplicate product lines by summing quantities, preserving the
	// first-seen order so the receipt lists lines in request order.
	qtyByProduct := make(map[uuid.UUID]int, len(req.Items))
	productOrder := make([]uuid.UUID, 0, len(req.Items))
	for _, line := range req.Items {
		pid, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, validationf("invalid product_id %q", line.ProductID)
		}
		if line.Quantity < 1 {
			return nil, validationf("each quantity must be at least 1")
		}
		if _, seen := qtyByProduct[pid]; !seen {
			productOrder = append(productOrder, pid)
		}
		qtyByProduct[pid] += line.Quantity
	}

	// Resolve products and pre-flight stock check (outside TX).
	type resolvedLine struct {
		product *model.Product
		qty     int
	}
	resolved := make([]resolvedLine, 0, len(productOrder))
	for _, pid := range productOrder {
		p, err := s.productRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, validationf("product %s not found", pid)
		}
		if !p.Active {
			return nil, validationf("product %s is inactive and cannot be ordered", p.Name)
		}
		qty := qtyByProduct[pid]
		if p.Stock < qty {
			return nil, &StockShortageError{ProductName: p.Name, Available: p.Stock, Requested: qty}
		}
		resolved = append(resolved, resolvedLine{product: p, qty: qty})
	}

	now := time.Now()
	order := model.Order{
		ID:              uuid.New(),
		OrderNumber:     newOrderNumber(now),
		ReceiverName:    receiverName,
		ReceiverPhone:   receiverPhone,
		ReceiverEmail:   req.ReceiverEmail,
		OrderDate:       now,
		FulfillmentType: req.FulfillmentType,
		Paid:            false,
		Delivered:       false,
	}
	if req.FulfillmentType == model.FulfillmentDelivery {
		order.DeliveryLocation = &deliveryLocation
	}

	total := decimal.Zero
	for _, line := range resolved {
		lineTotal := line.product.Price.Mul(decimal.NewFromInt(int64(line.qty)))
		order.Items = append(order.Items, model.OrderItem{
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			SKU:         line.product.SKU,
			Category:    line.product.Category,
			Quantity:    line.qty,
			UnitPrice:   line.product.Price,
			LineTotal:   lineTotal,
		})
		total = total.Add(lineTotal)
	}
	order.Total = total

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, &order); err != nil {
			return err
		}
		for _, line := range resolved {
			if err := s.productRepo.UpdateStockTx(tx, line.product.ID, -line.qty); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					// Pre-flight passed but a concurrent sale got there
					// first; abort the whole order.
					return &StockShortageError{ProductName: line.product.Name, Available: line.product.Stock, Requested: line.qty}
				}
				return fmt.Errorf("decrement stock for %s: %w", line.product.Name, err)
			}
			mov := &model.StockMovement{
				Date:        order.OrderDate,
				Type:        model.MovementOut,
				ProductID:   line.product.ID,
				ProductName: line.product.Name,
				SKU:         line.product.SKU,
				Qty:         line.qty,
				Note:        fmt.Sprintf("Order sold to %s", order.ReceiverName),
			}
			if err := s.movementRepo.CreateTx(tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := orderToResponse(&order)

	// Delivery-type orders get a pending delivery row. Its failure does not
	// roll back the committed order: the reconcile cron recreates missing
	// rows, and the caller gets a warning instead of an error.
	if order.FulfillmentType == model.FulfillmentDelivery {
		d := &model.Delivery{
			ID:        order.ID,
			OrderID:   order.ID,
			Status:    model.DeliveryPending,
			CreatedAt: now,
		}
		if err := s.deliveryRepo.Create(ctx, d); err != nil {
			log.Warn().
				Str("order_id", order.ID.String()).
				Err(err).
				Msg("order committed but pending delivery record failed; reconcile will retry")
			resp.DeliverySyncWarning = "delivery record could not be created; it will be recreated automatically"
		}
	}

	// Receipt email — best-effort, fire & forget.
	if s.dispatcher != nil && order.ReceiverEmail != nil && *order.ReceiverEmail != "" {
		_ = s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptJobPayload{
			OrderID: order.ID.String(),
			ToEmail: *order.ReceiverEmail,
		})
	}

	s.notify(ctx, CollectionOrders, CollectionProducts, CollectionMovements, CollectionDeliveries)
	return resp, nil
}

// ── TogglePaid ────────────────────────────────────────────────────────────────

func (s *orderService) TogglePaid(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if order.Delivered {
		return nil, &TransitionError{Msg: "a delivered order cannot change its payment state"}
	}

	order.Paid = !order.Paid
	if err := s.repo.SetPaid(ctx, id, order.Paid); err != nil {
		return nil, err
	}

	// No delivery-record sync needed: paid is projected from the order.
	s.notify(ctx, CollectionOrders, CollectionDeliveries)
	return orderToResponse(order), nil
}

// ── MarkDelivered ─────────────────────────────────────────────────────────────

func (s *orderService) MarkDelivered(ctx context.Context, id uuid.UUID, driverPhone string) (*dto.OrderResponse, error) {
	phone := strings.TrimSpace(driverPhone)
	if phone == "" {
		return nil, validationf("driver phone is required to mark an order delivered")
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if order.Delivered {
		return nil, &TransitionError{Msg: "order is already delivered"}
	}
	if !order.Paid {
		return nil, &TransitionError{Msg: "order must be paid before it can be marked delivered"}
	}

	now := time.Now()
	if order.FulfillmentType == model.FulfillmentDelivery {
		if err := s.deliveryRepo.MarkDelivered(ctx, id, phone, now); err != nil {
			return nil, err
		}
	}
	if err := s.repo.SetDelivered(ctx, id); err != nil {
		return nil, err
	}
	order.Delivered = true

	s.notify(ctx, CollectionOrders, CollectionDeliveries)
	return orderToResponse(order), nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return orderToResponse(order), nil
}

func (s *orderService) List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, *orderToResponse(&orders[i]))
	}
	return &dto.OrderListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// newOrderNumber derives a human-readable number from the current year and a
// time-based suffix. Practically unique, not guaranteed globally unique.
func newOrderNumber(now time.Time) string {
	ms := fmt.Sprintf("%d", now.UnixMilli())
	return fmt.Sprintf("ORD-%d-%s", now.Year(), ms[len(ms)-5:])
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
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
	return &dto.OrderResponse{
		ID:               o.ID.String(),
		OrderNumber:      o.OrderNumber,
		ReceiverName:     o.ReceiverName,
		ReceiverPhone:    o.ReceiverPhone,
		ReceiverEmail:    o.ReceiverEmail,
		Items:            items,
		Total:            o.Total,
		OrderDate:        o.OrderDate.Format("2006-01-02"),
		FulfillmentType:  o.FulfillmentType,
		DeliveryLocation: o.DeliveryLocation,
		Paid:             o.Paid,
		Delivered:        o.Delivered,
	}
}

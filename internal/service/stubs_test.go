package service_test

// Shared in-memory repository stubs. Services run their transactions with a
// nil *gorm.DB in tests, so every Tx method must accept a nil tx.

import (
	"context"
	"sort"
	"sync"
	"time"

	"propshop/internal/dto"
	"propshop/internal/model"
	"propshop/internal/repository"
	"propshop/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Product repository stub ──────────────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product

	// Runs before each stock update; lets a test interleave a competing
	// write between a service's pre-flight read and its decrement.
	beforeStockUpdate func()
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, p := range r.products {
		if equalFold(p.SKU, sku) {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(_ context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	all := r.sortedActive()
	return all, int64(len(all)), nil
}

func (r *stubProductRepo) ListAll(_ context.Context) ([]model.Product, error) {
	return r.sortedActive(), nil
}

func (r *stubProductRepo) sortedActive() []model.Product {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if p, ok := r.products[id]; ok {
		p.Active = false
	}
	return nil
}

func (r *stubProductRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	if p, ok := r.products[id]; ok {
		p.Active = true
	}
	return nil
}

func (r *stubProductRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.sortedActive())), nil
}

func (r *stubProductRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	if r.beforeStockUpdate != nil {
		r.beforeStockUpdate()
	}
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if delta < 0 && p.Stock < -delta {
		return repository.ErrInsufficientStock
	}
	p.Stock += delta
	return nil
}

func (r *stubProductRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) error {
	return r.UpdateStockTx(nil, id, delta)
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// ── Movement repository stub ─────────────────────────────────────────────────

type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) Create(_ context.Context, m *model.StockMovement) error {
	return r.CreateTx(nil, m)
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, filter dto.MovementFilter) ([]model.StockMovement, int64, error) {
	out := make([]model.StockMovement, 0, len(r.movements))
	for _, m := range r.movements {
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if filter.ProductID != "" && m.ProductID.String() != filter.ProductID {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovementRepo) ListAll(_ context.Context) ([]model.StockMovement, error) {
	return r.movements, nil
}

var _ repository.MovementRepository = (*stubMovementRepo)(nil)

// ── Order repository stub ────────────────────────────────────────────────────

type stubOrderRepo struct {
	orders     map[uuid.UUID]*model.Order
	deliveries *stubDeliveryRepo
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, _ *gorm.DB, o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.orders[o.ID] = o
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (r *stubOrderRepo) List(_ context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		switch filter.Status {
		case "pending":
			if o.Paid || o.Delivered {
				continue
			}
		case "paid":
			if !o.Paid || o.Delivered {
				continue
			}
		case "delivered":
			if !o.Delivered {
				continue
			}
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) ListAll(_ context.Context) ([]model.Order, error) {
	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

func (r *stubOrderRepo) SetPaid(_ context.Context, id uuid.UUID, paid bool) error {
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Paid = paid
	return nil
}

func (r *stubOrderRepo) SetDelivered(_ context.Context, id uuid.UUID) error {
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Delivered = true
	return nil
}

func (r *stubOrderRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.orders)), nil
}

func (r *stubOrderRepo) CountByStatus(_ context.Context, paid, delivered bool) (int64, error) {
	var n int64
	for _, o := range r.orders {
		if o.Paid == paid && o.Delivered == delivered {
			n++
		}
	}
	return n, nil
}

func (r *stubOrderRepo) ListDeliveryOrdersWithoutRecord(_ context.Context, limit int) ([]model.Order, error) {
	// Tests that need this wire up a stubDeliveryRepo and filter themselves;
	// here the linkage is injected via the field below.
	out := make([]model.Order, 0)
	for _, o := range r.orders {
		if o.FulfillmentType != model.FulfillmentDelivery {
			continue
		}
		if r.deliveries != nil {
			if _, exists := r.deliveries.rows[o.ID]; exists {
				continue
			}
		}
		out = append(out, *o)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

// ── Delivery repository stub ─────────────────────────────────────────────────

type stubDeliveryRepo struct {
	rows       map[uuid.UUID]*model.Delivery
	orderRepo  *stubOrderRepo
	failCreate bool
}

func newStubDeliveryRepo(orderRepo *stubOrderRepo) *stubDeliveryRepo {
	d := &stubDeliveryRepo{rows: make(map[uuid.UUID]*model.Delivery), orderRepo: orderRepo}
	if orderRepo != nil {
		orderRepo.deliveries = d
	}
	return d
}

func (r *stubDeliveryRepo) Create(_ context.Context, d *model.Delivery) error {
	if r.failCreate {
		return gorm.ErrInvalidDB
	}
	r.rows[d.OrderID] = d
	return nil
}

func (r *stubDeliveryRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) (*model.Delivery, error) {
	d, ok := r.rows[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	if r.orderRepo != nil {
		cp.Order = r.orderRepo.orders[orderID]
	}
	return &cp, nil
}

func (r *stubDeliveryRepo) ListWithOrders(_ context.Context) ([]model.Delivery, error) {
	out := make([]model.Delivery, 0, len(r.rows))
	for id, d := range r.rows {
		cp := *d
		if r.orderRepo != nil {
			cp.Order = r.orderRepo.orders[id]
		}
		out = append(out, cp)
	}
	return out, nil
}

func (r *stubDeliveryRepo) MarkDelivered(_ context.Context, orderID uuid.UUID, driverPhone string, at time.Time) error {
	d, ok := r.rows[orderID]
	if !ok {
		// Same as the GORM impl: a missing pending row is inserted in its
		// terminal state rather than dropping the driver details.
		r.rows[orderID] = &model.Delivery{
			ID:          orderID,
			OrderID:     orderID,
			Status:      model.DeliveryDelivered,
			DriverPhone: &driverPhone,
			DeliveredAt: &at,
			CreatedAt:   at,
		}
		return nil
	}
	d.Status = model.DeliveryDelivered
	d.DriverPhone = &driverPhone
	d.DeliveredAt = &at
	return nil
}

var _ repository.DeliveryRepository = (*stubDeliveryRepo)(nil)

// ── Admin repository stub ────────────────────────────────────────────────────

type stubAdminRepo struct {
	admins map[string]*model.Admin
}

func newStubAdminRepo() *stubAdminRepo {
	return &stubAdminRepo{admins: make(map[string]*model.Admin)}
}

func (r *stubAdminRepo) FindByEmail(_ context.Context, email string) (*model.Admin, error) {
	a, ok := r.admins[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *stubAdminRepo) List(_ context.Context) ([]model.Admin, error) {
	out := make([]model.Admin, 0, len(r.admins))
	for _, a := range r.admins {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *stubAdminRepo) Upsert(_ context.Context, a *model.Admin) error {
	r.admins[a.Email] = a
	return nil
}

func (r *stubAdminRepo) EnsureExists(_ context.Context, email string) error {
	if _, ok := r.admins[email]; !ok {
		r.admins[email] = &model.Admin{Email: email, CreatedAt: time.Now()}
	}
	return nil
}

func (r *stubAdminRepo) TouchLogin(_ context.Context, email string, at time.Time) error {
	if a, ok := r.admins[email]; ok {
		a.LastLoginAt = &at
	}
	return nil
}

var _ repository.AdminRepository = (*stubAdminRepo)(nil)

// ── Change notifier stub ─────────────────────────────────────────────────────

type stubNotifier struct {
	mu          sync.Mutex
	collections []string
}

func (n *stubNotifier) Notify(_ context.Context, collection string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.collections = append(n.collections, collection)
}

func (n *stubNotifier) notified(collection string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.collections {
		if c == collection {
			return true
		}
	}
	return false
}

var _ service.ChangeNotifier = (*stubNotifier)(nil)

// ── Seed helpers ─────────────────────────────────────────────────────────────

func seedProduct(repo *stubProductRepo, name, sku string, price float64, stock, minStock int) *model.Product {
	p := &model.Product{
		ID:       uuid.New(),
		SKU:      sku,
		Name:     name,
		Category: "general",
		Cost:     decimal.NewFromFloat(price / 2),
		Price:    decimal.NewFromFloat(price),
		Stock:    stock,
		MinStock: minStock,
		Active:   true,
	}
	repo.products[p.ID] = p
	return p
}

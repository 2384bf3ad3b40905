package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"propshop/internal/dto"
	"propshop/internal/model"
	"propshop/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryService records manual stock movements (receiving, corrections)
// and serves the ledger. Order-driven movements go through OrderService.
type InventoryService interface {
	RecordMovement(ctx context.Context, req dto.RecordMovementRequest) (*dto.MovementResponse, error)
	ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)
	StockAlerts(ctx context.Context) ([]dto.StockAlertResponse, error)
}

type inventoryService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	notifier     ChangeNotifier
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	movementRepo repository.MovementRepository,
	notifier ChangeNotifier,
) InventoryService {
	return &inventoryService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		notifier:     notifier,
	}
}

// RecordMovement applies one manual stock change: IN adds, OUT removes and
// requires sufficient stock. Stock update and ledger append share one
// transaction so a committed movement always matches its stock effect.
func (s *inventoryService) RecordMovement(ctx context.Context, req dto.RecordMovementRequest) (*dto.MovementResponse, error) {
	if req.Qty < 1 {
		return nil, validationf("quantity must be at least 1")
	}
	if req.Type != model.MovementIn && req.Type != model.MovementOut {
		return nil, validationf("movement type must be IN or OUT")
	}

	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, validationf("invalid product_id %q", req.ProductID)
	}
	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		return nil, validationf("product %s not found", req.ProductID)
	}
	if !product.Active {
		return nil, validationf("product %s is inactive", product.Name)
	}

	delta := req.Qty
	if req.Type == model.MovementOut {
		if product.Stock < req.Qty {
			return nil, &StockShortageError{ProductName: product.Name, Available: product.Stock, Requested: req.Qty}
		}
		delta = -req.Qty
	}

	note := strings.TrimSpace(req.Note)
	if note == "" {
		if req.Type == model.MovementIn {
			note = "Goods received"
		} else {
			note = "Goods sold"
		}
	}

	mov := &model.StockMovement{
		Date:        time.Now(),
		Type:        req.Type,
		ProductID:   product.ID,
		ProductName: product.Name,
		SKU:         product.SKU,
		Qty:         req.Qty,
		Note:        note,
	}

	txErr := runTx(ctx, s.productRepo.DB(), func(tx *gorm.DB) error {
		if err := s.productRepo.UpdateStockTx(tx, product.ID, delta); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return &StockShortageError{ProductName: product.Name, Available: product.Stock, Requested: req.Qty}
			}
			return err
		}
		return s.movementRepo.CreateTx(tx, mov)
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, CollectionProducts)
		s.notifier.Notify(ctx, CollectionMovements)
	}

	resp := movementToResponse(mov)
	return &resp, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	movements, total, err := s.movementRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, movementToResponse(&movements[i]))
	}
	return &dto.MovementListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// StockAlerts lists products at or below their minimum, out-of-stock first.
func (s *inventoryService) StockAlerts(ctx context.Context) ([]dto.StockAlertResponse, error) {
	products, err := s.productRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.StockAlertResponse, 0)
	for _, p := range products {
		switch {
		case p.Stock == 0:
			alerts = append(alerts, stockAlert(p, "out"))
		case p.Stock <= p.MinStock:
			alerts = append(alerts, stockAlert(p, "low"))
		}
	}
	return alerts, nil
}

func stockAlert(p model.Product, severity string) dto.StockAlertResponse {
	return dto.StockAlertResponse{
		ID:       p.ID.String(),
		SKU:      p.SKU,
		Name:     p.Name,
		Stock:    p.Stock,
		MinStock: p.MinStock,
		Severity: severity,
	}
}

func movementToResponse(m *model.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID.String(),
		Date:        m.Date.Format("2006-01-02"),
		Type:        m.Type,
		ProductID:   m.ProductID.String(),
		ProductName: m.ProductName,
		SKU:         m.SKU,
		Qty:         m.Qty,
		Note:        m.Note,
	}
}

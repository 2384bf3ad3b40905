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

// ProductService defines the business logic contract for the catalog.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	GetBySKU(ctx context.Context, sku string) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	repo         repository.ProductRepository
	movementRepo repository.MovementRepository
	notifier     ChangeNotifier
}

func NewProductService(
	repo repository.ProductRepository,
	movementRepo repository.MovementRepository,
	notifier ChangeNotifier,
) ProductService {
	return &productService{repo: repo, movementRepo: movementRepo, notifier: notifier}
}

// Create adds a catalog entry. SKUs are normalized to upper case and must be
// unique case-insensitively. A non-zero opening stock is recorded as an IN
// movement so the ledger accounts for every unit ever held.
func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	if sku == "" {
		return nil, validationf("sku is required")
	}

	if existing, err := s.repo.FindBySKU(ctx, sku); err == nil && existing != nil {
		return nil, validationf("a product with SKU %s already exists", existing.SKU)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	p := &model.Product{
		ID:       uuid.New(),
		SKU:      sku,
		Barcode:  strings.TrimSpace(req.Barcode),
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Brand:    strings.TrimSpace(req.Brand),
		Cost:     req.Cost,
		Price:    req.Price,
		Stock:    req.Stock,
		MinStock: req.MinStock,
		Active:   true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if p.Stock > 0 {
		mov := &model.StockMovement{
			Date:        time.Now(),
			Type:        model.MovementIn,
			ProductID:   p.ID,
			ProductName: p.Name,
			SKU:         p.SKU,
			Qty:         p.Stock,
			Note:        "Initial stock from add product",
		}
		if err := s.movementRepo.Create(ctx, mov); err != nil {
			return nil, err
		}
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, CollectionProducts)
		s.notifier.Notify(ctx, CollectionMovements)
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) GetBySKU(ctx context.Context, sku string) (*dto.ProductResponse, error) {
	p, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, ErrNotFound
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Barcode != nil {
		p.Barcode = strings.TrimSpace(*req.Barcode)
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
	}
	if req.Brand != nil {
		p.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.Cost != nil {
		p.Cost = *req.Cost
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, CollectionProducts)
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return ErrNotFound
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, CollectionProducts)
	}
	return nil
}

func (s *productService) Reactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return ErrNotFound
	}
	if err := s.repo.Reactivate(ctx, id); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, CollectionProducts)
	}
	return nil
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:       p.ID.String(),
		SKU:      p.SKU,
		Barcode:  p.Barcode,
		Name:     p.Name,
		Category: p.Category,
		Brand:    p.Brand,
		Cost:     p.Cost,
		Price:    p.Price,
		Stock:    p.Stock,
		MinStock: p.MinStock,
		Active:   p.Active,
	}
}

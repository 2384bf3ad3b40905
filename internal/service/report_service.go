package service

import (
	"context"
	"sort"

	"propshop/internal/dto"
	"propshop/internal/repository"

	"github.com/shopspring/decimal"
)

// ReportService computes the dashboard aggregates. Reports are derived on
// demand from orders and products; nothing is cached or pre-materialized.
type ReportService interface {
	SalesByCategory(ctx context.Context) ([]dto.CategorySalesRow, error)
	Summary(ctx context.Context) (*dto.SummaryResponse, error)
}

type reportService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	inventory   InventoryService
}

func NewReportService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	inventory InventoryService,
) ReportService {
	return &reportService{orderRepo: orderRepo, productRepo: productRepo, inventory: inventory}
}

// SalesByCategory aggregates order items by product category as recorded at
// sale time, so recategorized products keep their historical attribution.
func (s *reportService) SalesByCategory(ctx context.Context) ([]dto.CategorySalesRow, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	type acc struct {
		orders   map[string]struct{}
		quantity int
		revenue  decimal.Decimal
	}
	byCategory := make(map[string]*acc)

	for i := range orders {
		o := &orders[i]
		for _, item := range o.Items {
			category := item.Category
			if category == "" {
				category = "uncategorized"
			}
			a, ok := byCategory[category]
			if !ok {
				a = &acc{orders: make(map[string]struct{}), revenue: decimal.Zero}
				byCategory[category] = a
			}
			a.orders[o.ID.String()] = struct{}{}
			a.quantity += item.Quantity
			a.revenue = a.revenue.Add(item.LineTotal)
		}
	}

	rows := make([]dto.CategorySalesRow, 0, len(byCategory))
	for category, a := range byCategory {
		rows = append(rows, dto.CategorySalesRow{
			Category: category,
			Orders:   len(a.orders),
			Quantity: a.quantity,
			Revenue:  a.revenue,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Revenue.Equal(rows[j].Revenue) {
			return rows[i].Revenue.GreaterThan(rows[j].Revenue)
		}
		return rows[i].Category < rows[j].Category
	})
	return rows, nil
}

func (s *reportService) Summary(ctx context.Context) (*dto.SummaryResponse, error) {
	productCount, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	orderCount, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.orderRepo.CountByStatus(ctx, false, false)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	totalValue := decimal.Zero
	for i := range orders {
		totalValue = totalValue.Add(orders[i].Total)
	}

	lowStock, err := s.inventory.StockAlerts(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.SummaryResponse{
		ProductCount:    productCount,
		OrderCount:      orderCount,
		TotalOrderValue: totalValue,
		PendingOrders:   pending,
		LowStock:        lowStock,
	}, nil
}

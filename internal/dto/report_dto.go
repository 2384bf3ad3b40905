package dto

import "github.com/shopspring/decimal"

// CategorySalesRow aggregates order items by product category.
type CategorySalesRow struct {
	Category string          `json:"category"`
	Orders   int             `json:"orders"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// SummaryResponse backs the dashboard landing cards.
type SummaryResponse struct {
	ProductCount    int64                `json:"product_count"`
	OrderCount      int64                `json:"order_count"`
	TotalOrderValue decimal.Decimal      `json:"total_order_value"`
	PendingOrders   int64                `json:"pending_orders"`
	LowStock        []StockAlertResponse `json:"low_stock"`
}

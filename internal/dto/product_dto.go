package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	SKU      string          `json:"sku"       validate:"required,min=2,max=40"`
	Barcode  string          `json:"barcode"   validate:"omitempty,max=18"`
	Name     string          `json:"name"      validate:"required,min=2,max=120"`
	Category string          `json:"category"  validate:"required"`
	Brand    string          `json:"brand"`
	Cost     decimal.Decimal `json:"cost"      validate:"required"`
	Price    decimal.Decimal `json:"price"     validate:"required"`
	Stock    int             `json:"stock"     validate:"min=0"`
	MinStock int             `json:"min_stock" validate:"min=0"`
}

type UpdateProductRequest struct {
	Barcode  *string          `json:"barcode"   validate:"omitempty,max=18"`
	Name     *string          `json:"name"      validate:"omitempty,min=2,max=120"`
	Category *string          `json:"category"`
	Brand    *string          `json:"brand"`
	Cost     *decimal.Decimal `json:"cost"`
	Price    *decimal.Decimal `json:"price"`
	MinStock *int             `json:"min_stock" validate:"omitempty,min=0"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	SKU        string `form:"sku"`
	Category   string `form:"category"`
	StockLevel string `form:"stock_level"` // in_stock | low | out
	Active     string `form:"active"`      // "false" | "all" | default active only
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID       string          `json:"id"`
	SKU      string          `json:"sku"`
	Barcode  string          `json:"barcode"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Brand    string          `json:"brand"`
	Cost     decimal.Decimal `json:"cost"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	MinStock int             `json:"min_stock"`
	Active   bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// StockAlertResponse is one row of the low-stock report.
type StockAlertResponse struct {
	ID       string `json:"id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Stock    int    `json:"stock"`
	MinStock int    `json:"min_stock"`
	Severity string `json:"severity"` // low | out
}

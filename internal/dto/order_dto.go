package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// OrderLineRequest is one requested line. Duplicate product ids across lines
// are merged by the service before stock is checked.
type OrderLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type CreateOrderRequest struct {
	ReceiverName     string             `json:"receiver_name"     validate:"required,min=2,max=120"`
	ReceiverPhone    string             `json:"receiver_phone"    validate:"required,min=5,max=30"`
	ReceiverEmail    *string            `json:"receiver_email"    validate:"omitempty,email"`
	FulfillmentType  string             `json:"fulfillment_type"  validate:"required,oneof=delivery pickup"`
	DeliveryLocation *string            `json:"delivery_location"`
	Items            []OrderLineRequest `json:"items"             validate:"required,min=1,dive"`
}

type MarkDeliveredRequest struct {
	DriverPhone string `json:"driver_phone" validate:"required"`
}

type OrderFilter struct {
	Status string `form:"status"` // pending | paid | delivered | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type OrderResponse struct {
	ID               string              `json:"id"`
	OrderNumber      string              `json:"order_number"`
	ReceiverName     string              `json:"receiver_name"`
	ReceiverPhone    string              `json:"receiver_phone"`
	ReceiverEmail    *string             `json:"receiver_email,omitempty"`
	Items            []OrderItemResponse `json:"items"`
	Total            decimal.Decimal     `json:"total"`
	OrderDate        string              `json:"order_date"`
	FulfillmentType  string              `json:"fulfillment_type"`
	DeliveryLocation *string             `json:"delivery_location,omitempty"`
	Paid             bool                `json:"paid"`
	Delivered        bool                `json:"delivered"`
	// DeliverySyncWarning is set when the order committed but its pending
	// delivery record could not be written; the reconcile job will retry.
	DeliverySyncWarning string `json:"delivery_sync_warning,omitempty"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

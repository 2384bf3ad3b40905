package dto

// RecordMovementRequest registers one manual stock change (restock or manual
// out). Order-driven OUT movements are written by the order service, not here.
type RecordMovementRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Type      string `json:"type"       validate:"required,oneof=IN OUT"`
	Qty       int    `json:"qty"        validate:"required,min=1"`
	Note      string `json:"note"       validate:"max=240"`
}

type MovementFilter struct {
	ProductID string `form:"product_id" validate:"omitempty,uuid"`
	Type      string `form:"type"       validate:"omitempty,oneof=IN OUT"`
	Page      int    `form:"page,default=1"    validate:"min=1"`
	Limit     int    `form:"limit,default=50"  validate:"min=1,max=200"`
}

type MovementResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Qty         int    `json:"qty"`
	Note        string `json:"note"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

package dto

import "github.com/shopspring/decimal"

// DeliveryResponse is a projection: delivery-owned fields come from the
// deliveries row, everything else is read from the source order.
type DeliveryResponse struct {
	ID               string              `json:"id"` // = order id
	OrderID          string              `json:"order_id"`
	OrderNumber      string              `json:"order_number"`
	ReceiverName     string              `json:"receiver_name"`
	ReceiverPhone    string              `json:"receiver_phone"`
	ReceiverEmail    *string             `json:"receiver_email,omitempty"`
	DeliveryLocation string              `json:"delivery_location"`
	Items            []OrderItemResponse `json:"items"`
	Total            decimal.Decimal     `json:"total"`
	OrderDate        string              `json:"order_date"`
	Paid             bool                `json:"paid"`
	Status           string              `json:"status"`
	DriverPhone      *string             `json:"driver_phone,omitempty"`
	CreatedAt        string              `json:"created_at"`
	DeliveredAt      *string             `json:"delivered_at,omitempty"`
}

// ReconcileResponse reports how many missing pending delivery records were
// recreated for committed delivery-type orders.
type ReconcileResponse struct {
	Created int `json:"created"`
}

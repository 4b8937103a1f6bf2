package domain

import "time"

// Order statuses for the order record written after payment confirmation.
const (
	OrderStatusConfirmed = "confirmed"
	OrderStatusFailed    = "failed"
)

// Order is the durable record of a completed checkout.
type Order struct {
	ID              string      `json:"id"`
	ShopperID       string      `json:"shopper_id"`
	ContactEmail    string      `json:"contact_email"`
	Status          string      `json:"status"`
	Items           []CartItem  `json:"items"`
	TotalAmount     int64       `json:"total_amount"`
	Currency        string      `json:"currency"`
	DeliveryAddress Address     `json:"delivery_address"`
	PaymentRef      string      `json:"payment_ref,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderLine struct {
	ProductID    int64             `json:"product_id"`
	Name         string            `json:"name"`
	UnitPrice    float64           `json:"unit_price"`
	Quantity     int               `json:"quantity"`
	LineSubtotal float64           `json:"line_subtotal"`
	Options      map[string]string `json:"options,omitempty"`
}

type Customer struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	Reference  string `json:"reference,omitempty"`
	Locality   string `json:"locality"`
	IDDocument string `json:"id_document"`
	Notes      string `json:"notes,omitempty"`
}

// Order is created once per successful checkout attempt and is immutable
// after persistence.
type Order struct {
	ID            uuid.UUID   `json:"id"`
	Items         []OrderLine `json:"items"`
	Subtotal      float64     `json:"subtotal"`
	Shipping      float64     `json:"shipping"`
	Discount      float64     `json:"discount"`
	Total         float64     `json:"total"`
	Customer      Customer    `json:"customer"`
	PaymentMethod string      `json:"payment_method"`
	CouponCode    string      `json:"coupon_code,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

type ShippingZone struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Cost float64 `json:"cost"`
}

// CheckoutRequest carries the customer form exactly as submitted; field
// validation collects every violation instead of failing fast.
type CheckoutRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Reference     string `json:"reference"`
	Locality      string `json:"locality"`
	IDDocument    string `json:"id_document"`
	Notes         string `json:"notes"`
	PaymentMethod string `json:"payment_method"`
	ShippingZone  string `json:"shipping_zone"`
}

type CheckoutResult struct {
	OrderID    uuid.UUID `json:"order_id"`
	Subtotal   float64   `json:"subtotal"`
	Shipping   float64   `json:"shipping"`
	Discount   float64   `json:"discount"`
	Total      float64   `json:"total"`
	CouponCode string    `json:"coupon_code,omitempty"`
}

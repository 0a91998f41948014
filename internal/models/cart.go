package models

import "maps"

// CartItem is one line in the cart. Lines merge on (ProductID, Options);
// the ID is a per-line identifier generated when the line is first added.
type CartItem struct {
	ID        string            `json:"id"`
	ProductID int64             `json:"product_id"`
	Name      string            `json:"name"`
	UnitPrice float64           `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	ImageURL  string            `json:"image_url"`
	Options   map[string]string `json:"options,omitempty"`
}

func (i *CartItem) LineSubtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// SameVariant reports whether the line holds the given product with
// structurally equal options.
func (i *CartItem) SameVariant(productID int64, options map[string]string) bool {
	if i.ProductID != productID {
		return false
	}

	if len(i.Options) != len(options) {
		return false
	}

	return maps.Equal(i.Options, options)
}

// CartSnapshot is the serialized form persisted to the cart slot.
type CartSnapshot struct {
	Items []CartItem `json:"items"`
}

// CartState is pushed to change observers after every mutation.
type CartState struct {
	Items         []CartItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	TotalQuantity int        `json:"total_quantity"`
}

type AddItemRequest struct {
	ProductID int64             `json:"product_id" validate:"required"`
	Quantity  int               `json:"quantity"   validate:"omitempty,min=1"`
	Options   map[string]string `json:"options"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

package models

import "time"

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	OnOffer     bool      `json:"on_offer"`
	OfferPrice  float64   `json:"offer_price,omitempty"`
	ImageURL    string    `json:"image_url"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EffectivePrice is the offer price only when the offer flag and a usable
// offer price are both present, otherwise the list price.
func (p *Product) EffectivePrice() float64 {
	if p.OnOffer && p.OfferPrice > 0 {
		return p.OfferPrice
	}

	return p.Price
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Size     int       `json:"size"`
}

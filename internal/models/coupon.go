package models

import "time"

type CouponKind string

const (
	CouponKindPercentage CouponKind = "percentage"
	CouponKindFixed      CouponKind = "fixed"
)

type Coupon struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Discount  float64    `json:"discount"`
	Kind      CouponKind `json:"kind"`
	MaxUses   int        `json:"max_uses"`
	UsesSoFar int        `json:"uses_so_far"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Active    bool       `json:"active"`
}

// Redeemable reports whether the coupon may still contribute a discount.
func (c *Coupon) Redeemable(now time.Time) bool {
	if !c.Active {
		return false
	}

	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}

	return c.UsesSoFar < c.MaxUses
}

// AppliedDiscount is the resolved discount for one checkout attempt.
// A zero Amount with an empty Code means no coupon applies.
type AppliedDiscount struct {
	Amount   float64    `json:"amount"`
	Code     string     `json:"code,omitempty"`
	Kind     CouponKind `json:"kind,omitempty"`
	CouponID int64      `json:"-"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,min=1"`
}

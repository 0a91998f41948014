package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cubazon/storefront/internal/models"
	"github.com/cubazon/storefront/internal/utils"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

var (
	// Lenient on purpose, the mail relay is the real gatekeeper.
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{8,11}$`)

	sanitizer = bluemonday.StrictPolicy()
)

// ValidateCheckoutForm checks every field independently and returns the full
// list of human-readable violations; it never fails fast.
func ValidateCheckoutForm(req *models.CheckoutRequest) []string {

	var violations []string

	if len(strings.TrimSpace(req.Name)) < 3 {
		violations = append(violations, "Full name (at least 3 characters)")
	}

	if !emailPattern.MatchString(req.Email) {
		violations = append(violations, "Valid email address")
	}

	if !phonePattern.MatchString(strings.ReplaceAll(req.Phone, " ", "")) {
		violations = append(violations, "Phone number (8-11 digits)")
	}

	if len(strings.TrimSpace(req.Address)) < 5 {
		violations = append(violations, "Complete address")
	}

	if strings.TrimSpace(req.Locality) == "" {
		violations = append(violations, "Locality/Neighborhood")
	}

	if len(strings.TrimSpace(req.IDDocument)) < 5 {
		violations = append(violations, "ID card or passport number")
	}

	if req.PaymentMethod == "" {
		violations = append(violations, "Select a payment method")
	}

	if req.ShippingZone == "" {
		violations = append(violations, "Select a shipping destination")
	}

	return violations
}

// ComputeTotals derives the order total. Every monetary value is rounded to
// cent precision before it is embedded in the order.
func ComputeTotals(subtotal, shipping, discount float64) (float64, float64, float64, float64) {

	subtotal = utils.Round2(subtotal)
	shipping = utils.Round2(shipping)
	discount = utils.Round2(discount)

	return subtotal, shipping, discount, utils.Round2(subtotal + shipping - discount)
}

// BuildOrder is a pure transformation from cart lines, the customer form and
// the resolved totals into the immutable order record. It never mutates its
// inputs.
func BuildOrder(items []models.CartItem, req *models.CheckoutRequest, subtotal, shipping, discount, total float64, couponCode string, now time.Time) *models.Order {

	lines := make([]models.OrderLine, 0, len(items))

	for _, item := range items {
		lines = append(lines, models.OrderLine{
			ProductID:    item.ProductID,
			Name:         item.Name,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineSubtotal: utils.Round2(item.LineSubtotal()),
			Options:      item.Options,
		})
	}

	return &models.Order{
		ID:       uuid.New(),
		Items:    lines,
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Total:    total,
		Customer: models.Customer{
			Name:       strings.TrimSpace(req.Name),
			Email:      strings.TrimSpace(req.Email),
			Phone:      strings.ReplaceAll(req.Phone, " ", ""),
			Address:    strings.TrimSpace(req.Address),
			Reference:  sanitizer.Sanitize(strings.TrimSpace(req.Reference)),
			Locality:   strings.TrimSpace(req.Locality),
			IDDocument: strings.TrimSpace(req.IDDocument),
			Notes:      sanitizer.Sanitize(strings.TrimSpace(req.Notes)),
		},
		PaymentMethod: req.PaymentMethod,
		CouponCode:    couponCode,
		CreatedAt:     now,
	}
}

// OrderSummary renders the plain-text confirmation attached to the order
// email.
func OrderSummary(order *models.Order) string {

	var b strings.Builder

	b.WriteString("=== ORDER SUMMARY ===\n")
	fmt.Fprintf(&b, "ID: %s\n", order.ID)
	fmt.Fprintf(&b, "Date: %s\n\n", order.CreatedAt.Format("02/01/2006 15:04"))
	b.WriteString("PRODUCTS:\n")

	for i, line := range order.Items {
		fmt.Fprintf(&b, "%d. %s", i+1, line.Name)

		if size, ok := line.Options["size"]; ok {
			fmt.Fprintf(&b, " (Size: %s)", size)
		}

		fmt.Fprintf(&b, " - %d x $%.2f = $%.2f\n", line.Quantity, line.UnitPrice, line.LineSubtotal)
	}

	fmt.Fprintf(&b, "\nSubtotal: $%.2f\n", order.Subtotal)
	fmt.Fprintf(&b, "Shipping: $%.2f\n", order.Shipping)

	if order.Discount > 0 {
		fmt.Fprintf(&b, "Discount (%s): -$%.2f\n", order.CouponCode, order.Discount)
	}

	fmt.Fprintf(&b, "TOTAL: $%.2f\n", order.Total)
	fmt.Fprintf(&b, "Payment method: %s\n", order.PaymentMethod)
	b.WriteString("========================")

	return b.String()
}

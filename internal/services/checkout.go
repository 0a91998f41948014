package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/cubazon/storefront/internal/errors"
	"github.com/cubazon/storefront/internal/metrics"
	"github.com/cubazon/storefront/internal/models"
	repository "github.com/cubazon/storefront/internal/repositories"
	"github.com/cubazon/storefront/internal/session"
	"github.com/cubazon/storefront/pkg/sendgrid"
)

// CheckoutService sequences one checkout attempt: validation, stock
// verification, total computation, order persistence and the finalizing
// side effects. The per-session guard admits at most one attempt at a time
// and is cleared unconditionally when the attempt ends.
type CheckoutService struct {
	cart         *CartStore
	coupons      *CouponService
	verifier     *StockVerifier
	orderRepo    repository.OrderRepository
	shippingRepo repository.ShippingRepository
	email        sendgrid.EmailService
	now          func() time.Time
}

func NewCheckoutService(cart *CartStore, coupons *CouponService, verifier *StockVerifier,
	orderRepo repository.OrderRepository, shippingRepo repository.ShippingRepository,
	email sendgrid.EmailService) *CheckoutService {
	return &CheckoutService{
		cart:         cart,
		coupons:      coupons,
		verifier:     verifier,
		orderRepo:    orderRepo,
		shippingRepo: shippingRepo,
		email:        email,
		now:          time.Now,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, sess *session.Session, req *models.CheckoutRequest) (*models.CheckoutResult, error) {

	if !sess.BeginCheckout() {
		metrics.CheckoutAttemptsTotal.WithLabelValues(metrics.CheckoutOutcomeInProgress).Inc()
		return nil, apperrors.DuplicateSubmissionError("Checkout already in progress")
	}

	defer sess.EndCheckout()

	// 1. Validate the form, collecting every violation.
	if violations := ValidateCheckoutForm(req); len(violations) > 0 {
		metrics.CheckoutAttemptsTotal.WithLabelValues(metrics.CheckoutOutcomeValidationFailed).Inc()
		return nil, apperrors.ValidationError("Required fields are missing or invalid").WithDetails(violations)
	}

	// 2. Validate the cart.
	items, err := s.cart.Items(ctx, sess)
	if err != nil {
		metrics.CheckoutAttemptsTotal.WithLabelValues(metrics.CheckoutOutcomeValidationFailed).Inc()
		return nil, err
	}

	if len(items) == 0 {
		metrics.CheckoutAttemptsTotal.WithLabelValues(metrics.CheckoutOutcomeValidationFailed).Inc()
		return nil, apperrors.BadRequestError("Your cart is empty")
	}

	// 3. Verify stock for the whole cart.
	checkItems := make([]models.StockCheckItem, 0, len(items))
	for _, item := range items {
		checkItems = append(checkItems, models.StockCheckItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	stockResult, err := s.verifier.Verify(ctx, checkItems)
	if err != nil {
		metrics.CheckoutAttemptsTotal.WithLabelValues(metrics.CheckoutOutcomeStockFailed).Inc()
		return nil, err
	}

	if !stockResult.AllAvailable {
		metrics.CheckoutAttemptsTotal.WithLabelValues(metrics.CheckoutOutcomeStockFailed).Inc()

		// Reconcile the cart with real availability before reporting back.
		if _, refreshErr := s.cart.RefreshStock(ctx, sess); refreshErr != nil {
			slog.Warn("Cart stock refresh after failed verification",
				slog.String("sessionId", sess.ID), slog.Any("error", refreshErr))
		}

		return nil, apperrors.InsufficientStockError("Not enough stock for some items").
			WithDetails(shortfallLines(items, stockResult.Shortfalls))
	}

	// 4. Compute totals.
	zone, err := s.shippingRepo.GetZone(ctx, req.ShippingZone)
	if err != nil {
		metrics.CheckoutAttemptsTotal.WithLabelValues(metrics.CheckoutOutcomeValidationFailed).Inc()

		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidationError("Unknown shipping destination")
		}

		return nil, apperrors.DatabaseError("Failed to resolve shipping cost").WithError(err)
	}

	discount := s.coupons.ResolveActiveDiscount(ctx, sess, subtotalOf(items))

	subtotal, shipping, discountAmount, total := ComputeTotals(subtotalOf(items), zone.Cost, discount.Amount)

	order := BuildOrder(items, req, subtotal, shipping, discountAmount, total, discount.Code, s.now())

	// 5. Persist the order.
	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		metrics.CheckoutAttemptsTotal.WithLabelValues(metrics.CheckoutOutcomePersistFailed).Inc()

		if appErr, ok := apperrors.IsAppError(err); ok && appErr.Code == apperrors.ErrCodeDuplicateSubmission {
			return nil, apperrors.DuplicateSubmissionError("This order was already processed, please reload the page").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to process the order, please try again").WithError(err)
	}

	// 6. Finalize. Nothing past this point may undo the persisted order.
	s.coupons.RecordUsage(ctx, discount)

	s.sendConfirmation(ctx, order)

	if _, err := s.cart.Clear(ctx, sess); err != nil {
		slog.Error("Failed to clear cart after checkout",
			slog.String("sessionId", sess.ID), slog.Any("error", err))
	}

	if err := s.coupons.ClearApplied(ctx, sess); err != nil {
		slog.Warn("Failed to clear applied coupon after checkout",
			slog.String("sessionId", sess.ID), slog.Any("error", err))
	}

	sess.SetLastOrderID(order.ID)
	metrics.CheckoutAttemptsTotal.WithLabelValues(metrics.CheckoutOutcomeSuccess).Inc()

	return &models.CheckoutResult{
		OrderID:    order.ID,
		Subtotal:   order.Subtotal,
		Shipping:   order.Shipping,
		Discount:   order.Discount,
		Total:      order.Total,
		CouponCode: order.CouponCode,
	}, nil
}

// sendConfirmation mails the order summary to the customer. Best-effort: a
// relay failure never blocks order completion.
func (s *CheckoutService) sendConfirmation(ctx context.Context, order *models.Order) {

	if s.email == nil {
		return
	}

	msg := &models.EmailMessage{
		To:      order.Customer.Email,
		Subject: fmt.Sprintf("Order confirmation %s", order.ID),
		Content: OrderSummary(order),
	}

	if err := s.email.Send(ctx, msg); err != nil {
		slog.Error("Failed to send order confirmation email",
			slog.String("orderId", order.ID.String()), slog.Any("error", err))
	}
}

func shortfallLines(items []models.CartItem, shortfalls []models.StockShortfall) []string {

	names := make(map[int64]string, len(items))
	for _, item := range items {
		names[item.ProductID] = item.Name
	}

	lines := make([]string, 0, len(shortfalls))

	for _, sf := range shortfalls {

		name := sf.Name
		if name == "" {
			name = names[sf.ProductID]
		}

		if sf.Reason == models.ShortfallReasonNotFound {
			lines = append(lines, fmt.Sprintf("%s: no longer available", name))
			continue
		}

		lines = append(lines, fmt.Sprintf("%s: requested %d, available %d", name, sf.Requested, sf.Available))
	}

	return lines
}

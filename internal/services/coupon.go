package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/cubazon/storefront/internal/cache"
	apperrors "github.com/cubazon/storefront/internal/errors"
	"github.com/cubazon/storefront/internal/models"
	repository "github.com/cubazon/storefront/internal/repositories"
	"github.com/cubazon/storefront/internal/session"
)

const couponSlotPrefix = "coupon:"

// CouponService validates discount codes against the coupon collaborator
// and keeps the applied-code reference in its persistent slot.
type CouponService struct {
	couponRepo repository.CouponRepository
	slots      cache.Cache
	now        func() time.Time
}

func NewCouponService(couponRepo repository.CouponRepository, slots cache.Cache) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		slots:      slots,
		now:        time.Now,
	}
}

// Apply validates the code and stores it as the session's applied coupon.
func (s *CouponService) Apply(ctx context.Context, sess *session.Session, code string) (*models.Coupon, error) {

	coupon, err := s.couponRepo.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Coupon not found")
		}
		return nil, apperrors.DatabaseError("Failed to fetch coupon").WithError(err)
	}

	if !coupon.Redeemable(s.now()) {
		return nil, apperrors.ValidationError("Coupon is no longer valid")
	}

	if err := s.slots.Set(ctx, couponSlotPrefix+sess.ID, coupon.Code, 0); err != nil {
		return nil, apperrors.InternalError("Failed to store applied coupon").WithError(err)
	}

	return coupon, nil
}

// ClearApplied drops the session's applied-coupon reference.
func (s *CouponService) ClearApplied(ctx context.Context, sess *session.Session) error {
	return s.slots.Delete(ctx, couponSlotPrefix+sess.ID)
}

// ResolveActiveDiscount re-validates the applied coupon at checkout time and
// computes the discount against the given subtotal. Any coupon failing the
// active/expiry/usage checks resolves to zero and is purged from the slot;
// a transport failure on the fetch is treated the same way and never
// surfaces to the caller.
func (s *CouponService) ResolveActiveDiscount(ctx context.Context, sess *session.Session, cartSubtotal float64) models.AppliedDiscount {

	none := models.AppliedDiscount{}

	var code string

	found, err := s.slots.Get(ctx, couponSlotPrefix+sess.ID, &code)
	if err != nil {
		slog.Warn("Applied coupon slot unreadable", slog.String("sessionId", sess.ID), slog.Any("error", err))
		return none
	}

	if !found || code == "" {
		return none
	}

	coupon, err := s.couponRepo.GetActiveByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("Coupon lookup failed, resolving to zero discount",
				slog.String("code", code), slog.Any("error", err))
		}

		s.purge(ctx, sess)

		return none
	}

	if !coupon.Redeemable(s.now()) {
		s.purge(ctx, sess)
		return none
	}

	var amount float64

	switch coupon.Kind {
	case models.CouponKindPercentage:
		amount = cartSubtotal * (coupon.Discount / 100)
	default:
		amount = coupon.Discount
	}

	// The effective discount never exceeds the subtotal.
	if amount > cartSubtotal {
		amount = cartSubtotal
	}

	if amount < 0 {
		amount = 0
	}

	return models.AppliedDiscount{
		Amount:   amount,
		Code:     coupon.Code,
		Kind:     coupon.Kind,
		CouponID: coupon.ID,
	}
}

// RecordUsage bumps the usage counter after a successful order. Best-effort:
// a failure here is logged and never rolls back the order.
func (s *CouponService) RecordUsage(ctx context.Context, discount models.AppliedDiscount) {

	if discount.Code == "" || discount.CouponID == 0 {
		return
	}

	if err := s.couponRepo.IncrementUsage(ctx, discount.CouponID); err != nil {
		slog.Error("Failed to increment coupon usage",
			slog.String("code", discount.Code), slog.Any("error", err))
	}
}

func (s *CouponService) purge(ctx context.Context, sess *session.Session) {
	if err := s.slots.Delete(ctx, couponSlotPrefix+sess.ID); err != nil {
		slog.Warn("Failed to purge stale coupon reference",
			slog.String("sessionId", sess.ID), slog.Any("error", err))
	}
}

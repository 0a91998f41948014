package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cubazon/storefront/internal/models"
	"github.com/cubazon/storefront/internal/utils"
)

type CouponRepository interface {
	GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, id int64) error
}

type couponRepository struct {
	DB *sql.DB
}

func NewCouponRepo(db *sql.DB) CouponRepository {
	return &couponRepository{DB: db}
}

// GetActiveByCode matches the code case-sensitively and only returns
// coupons flagged active; expiry and usage caps are the caller's concern.
func (r *couponRepository) GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, code, discount, kind, max_uses, uses_so_far, expires_at, active
		FROM coupons
		WHERE code = $1 AND active = TRUE
	`

	coupon := &models.Coupon{}

	err := r.DB.QueryRowContext(dbCtx, query, code).Scan(
		&coupon.ID, &coupon.Code, &coupon.Discount, &coupon.Kind,
		&coupon.MaxUses, &coupon.UsesSoFar, &coupon.ExpiresAt, &coupon.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("querying coupon: %w", err)
	}

	return coupon, nil
}

// IncrementUsage bumps the usage counter server-side in a single statement.
func (r *couponRepository) IncrementUsage(ctx context.Context, id int64) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE coupons SET uses_so_far = uses_so_far + 1 WHERE id = $1`

	result, err := r.DB.ExecContext(dbCtx, query, id)
	if err != nil {
		return fmt.Errorf("incrementing coupon usage: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

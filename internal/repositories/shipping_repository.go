package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cubazon/storefront/internal/models"
	"github.com/cubazon/storefront/internal/utils"
)

type ShippingRepository interface {
	GetZone(ctx context.Context, code string) (*models.ShippingZone, error)
	ListZones(ctx context.Context) ([]models.ShippingZone, error)
}

type shippingRepository struct {
	DB *sql.DB
}

func NewShippingRepo(db *sql.DB) ShippingRepository {
	return &shippingRepository{DB: db}
}

func (r *shippingRepository) GetZone(ctx context.Context, code string) (*models.ShippingZone, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT code, name, cost FROM shipping_zones WHERE code = $1`

	zone := &models.ShippingZone{}

	err := r.DB.QueryRowContext(dbCtx, query, code).Scan(&zone.Code, &zone.Name, &zone.Cost)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("querying shipping zone: %w", err)
	}

	return zone, nil
}

func (r *shippingRepository) ListZones(ctx context.Context) ([]models.ShippingZone, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.DB.QueryContext(dbCtx, `SELECT code, name, cost FROM shipping_zones ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing shipping zones: %w", err)
	}

	defer rows.Close()

	var zones []models.ShippingZone

	for rows.Next() {

		var z models.ShippingZone

		if err := rows.Scan(&z.Code, &z.Name, &z.Cost); err != nil {
			return nil, fmt.Errorf("scanning shipping zone: %w", err)
		}

		zones = append(zones, z)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shipping zones: %w", err)
	}

	return zones, nil
}

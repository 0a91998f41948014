package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	apperrors "github.com/cubazon/storefront/internal/errors"
	"github.com/cubazon/storefront/internal/metrics"
	"github.com/cubazon/storefront/internal/models"
	repository "github.com/cubazon/storefront/internal/repositories"
)

// StockVerifier checks availability for a whole cart. The primary path is a
// single transactional RPC; when that fails for any reason it degrades to
// sequential per-product reads. The fallback result is marked Degraded: it
// is not consistent with concurrent purchases and callers must treat it as
// best-effort.
type StockVerifier struct {
	rpc         repository.StockRPCClient
	productRepo repository.ProductRepository
}

func NewStockVerifier(rpc repository.StockRPCClient, productRepo repository.ProductRepository) *StockVerifier {
	return &StockVerifier{rpc: rpc, productRepo: productRepo}
}

func (s *StockVerifier) Verify(ctx context.Context, items []models.StockCheckItem) (*models.StockResult, error) {

	result, err := s.rpc.VerifyStock(ctx, items)
	if err == nil {
		result.AllAvailable = len(result.Shortfalls) == 0
		return result, nil
	}

	slog.Warn("Atomic stock check unavailable, falling back to per-item reads",
		slog.Any("error", err))
	metrics.StockFallbackTotal.Inc()

	return s.verifySequential(ctx, items)
}

func (s *StockVerifier) verifySequential(ctx context.Context, items []models.StockCheckItem) (*models.StockResult, error) {

	result := &models.StockResult{Degraded: true}

	for _, item := range items {

		stock, err := s.productRepo.GetStock(ctx, item.ProductID)
		if err != nil {

			if errors.Is(err, sql.ErrNoRows) {
				result.Shortfalls = append(result.Shortfalls, models.StockShortfall{
					ProductID: item.ProductID,
					Requested: item.Quantity,
					Reason:    models.ShortfallReasonNotFound,
				})

				continue
			}

			return nil, apperrors.DatabaseError("Failed to verify stock").WithError(err)
		}

		if stock < item.Quantity {
			result.Shortfalls = append(result.Shortfalls, models.StockShortfall{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: stock,
				Reason:    models.ShortfallReasonInsufficient,
			})
		}
	}

	result.AllAvailable = len(result.Shortfalls) == 0

	return result, nil
}

package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/cubazon/storefront/internal/api/middleware"
	apperrors "github.com/cubazon/storefront/internal/errors"
	"github.com/cubazon/storefront/internal/models"
	repository "github.com/cubazon/storefront/internal/repositories"
	"github.com/cubazon/storefront/internal/utils/response"
	"log/slog"
)

type ProductHandler struct {
	productRepo repository.ProductRepository
}

func NewProductHandler(productRepo repository.ProductRepository) *ProductHandler {
	return &ProductHandler{productRepo: productRepo}
}

func (h *ProductHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			response.Error(w, apperrors.BadRequestError("Product ID must be numeric"))
			return
		}

		product, err := h.productRepo.GetProductByID(r.Context(), id)
		if err != nil {

			if errors.Is(err, sql.ErrNoRows) {
				response.Error(w, apperrors.NotFoundError("Product not found"))
				return
			}

			middleware.LoggerFromContext(r.Context()).Error("Failed to fetch product", slog.Any("error", err))
			response.Error(w, apperrors.DatabaseError("Failed to fetch product"))

			return
		}

		response.Success(w, http.StatusOK, product)

	}
}

func (h *ProductHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))

		if page < 1 {
			page = 1
		}

		if size < 1 || size > 50 {
			size = 20
		}

		products, total, err := h.productRepo.ListProducts(r.Context(), page, size)
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to list products", slog.Any("error", err))
			response.Error(w, apperrors.DatabaseError("Failed to list products"))

			return
		}

		response.Success(w, http.StatusOK, models.ProductListResponse{
			Products: products,
			Total:    total,
			Page:     page,
			Size:     size,
		})

	}
}

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cubazon/storefront/internal/api/middleware"
	apperrors "github.com/cubazon/storefront/internal/errors"
	"github.com/cubazon/storefront/internal/models"
	repository "github.com/cubazon/storefront/internal/repositories"
	service "github.com/cubazon/storefront/internal/services"
	"github.com/cubazon/storefront/internal/utils/response"
	"github.com/google/uuid"
)

type CheckoutHandler struct {
	checkout     *service.CheckoutService
	orderRepo    repository.OrderRepository
	shippingRepo repository.ShippingRepository
}

func NewCheckoutHandler(checkout *service.CheckoutService, orderRepo repository.OrderRepository,
	shippingRepo repository.ShippingRepository) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, orderRepo: orderRepo, shippingRepo: shippingRepo}
}

func (h *CheckoutHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess := sessionFromRequest(w, r)
		if sess == nil {
			return
		}

		var req models.CheckoutRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			return
		}

		logger := middleware.LoggerFromContext(r.Context())

		result, err := h.checkout.Checkout(r.Context(), sess, &req)
		if err != nil {
			logger.Warn("Checkout attempt failed", slog.String("sessionId", sess.ID), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Order created",
			slog.String("orderId", result.OrderID.String()),
			slog.Float64("total", result.Total))
		response.Success(w, http.StatusCreated, result)

	}
}

func (h *CheckoutHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			response.Error(w, apperrors.BadRequestError("Order ID must be a UUID"))
			return
		}

		order, err := h.orderRepo.GetOrderByID(r.Context(), id)
		if err != nil {

			if errors.Is(err, sql.ErrNoRows) {
				response.Error(w, apperrors.NotFoundError("Order not found"))
				return
			}

			response.Error(w, apperrors.DatabaseError("Failed to fetch order"))

			return
		}

		response.Success(w, http.StatusOK, order)

	}
}

func (h *CheckoutHandler) ListShippingZones() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		zones, err := h.shippingRepo.ListZones(r.Context())
		if err != nil {
			response.Error(w, apperrors.DatabaseError("Failed to list shipping zones"))
			return
		}

		response.Success(w, http.StatusOK, zones)

	}
}

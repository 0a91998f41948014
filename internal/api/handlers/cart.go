package handlers

import (
	"log/slog"
	"net/http"

	"github.com/cubazon/storefront/internal/api/middleware"
	service "github.com/cubazon/storefront/internal/services"
	"github.com/cubazon/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"

	"github.com/cubazon/storefront/internal/models"
)

type CartHandler struct {
	cart      *service.CartStore
	coupons   *service.CouponService
	validator *validator.Validate
}

func NewCartHandler(cart *service.CartStore, coupons *service.CouponService) *CartHandler {
	return &CartHandler{
		cart:      cart,
		coupons:   coupons,
		validator: validator.New(),
	}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess := sessionFromRequest(w, r)
		if sess == nil {
			return
		}

		state, err := h.cart.State(r.Context(), sess)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, state)

	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess := sessionFromRequest(w, r)
		if sess == nil {
			return
		}

		var req models.AddItemRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			return
		}

		if !validateStruct(w, h.validator, req) {
			return
		}

		state, err := h.cart.AddItem(r.Context(), sess, &req)
		if err != nil {
			response.Error(w, err)
			return
		}

		middleware.LoggerFromContext(r.Context()).Info("Item added to cart",
			slog.Int64("productId", req.ProductID), slog.String("sessionId", sess.ID))
		response.Success(w, http.StatusOK, state)

	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess := sessionFromRequest(w, r)
		if sess == nil {
			return
		}

		itemID := r.PathValue("id")

		var req models.UpdateQuantityRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			return
		}

		state, err := h.cart.SetQuantity(r.Context(), sess, itemID, req.Quantity)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, state)

	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess := sessionFromRequest(w, r)
		if sess == nil {
			return
		}

		state, err := h.cart.RemoveItem(r.Context(), sess, r.PathValue("id"))
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, state)

	}
}

func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess := sessionFromRequest(w, r)
		if sess == nil {
			return
		}

		emptied, err := h.cart.Clear(r.Context(), sess)
		if err != nil {
			response.Error(w, err)
			return
		}

		message := "Cart emptied"
		if !emptied {
			message = "Cart is already empty"
		}

		response.Success(w, http.StatusOK, map[string]string{"message": message})

	}
}

func (h *CartHandler) ApplyCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess := sessionFromRequest(w, r)
		if sess == nil {
			return
		}

		var req models.ApplyCouponRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			return
		}

		if !validateStruct(w, h.validator, req) {
			return
		}

		coupon, err := h.coupons.Apply(r.Context(), sess, req.Code)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, map[string]any{
			"code":     coupon.Code,
			"kind":     coupon.Kind,
			"discount": coupon.Discount,
		})

	}
}

func (h *CartHandler) RemoveCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess := sessionFromRequest(w, r)
		if sess == nil {
			return
		}

		if err := h.coupons.ClearApplied(r.Context(), sess); err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, map[string]string{"message": "Coupon removed"})

	}
}

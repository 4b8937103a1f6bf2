package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hemloft/storefront/internal/repository"
	apperrors "github.com/hemloft/storefront/pkg/errors"
)

// OrderHandler serves order records for the confirmation and history views.
type OrderHandler struct {
	orders repository.OrderRepository
}

// NewOrderHandler creates an order HTTP handler.
func NewOrderHandler(orders repository.OrderRepository) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, err := h.orders.ListByShopper(r.Context(), shopperIDFromContext(r.Context()), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: orders})
}

// Get handles GET /api/v1/orders/{orderID}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Shoppers can only read their own orders.
	if order.ShopperID != shopperIDFromContext(r.Context()) {
		writeError(w, r, apperrors.NotFound("order", order.ID))
		return
	}

	writeJSON(w, http.StatusOK, response{Data: order})
}

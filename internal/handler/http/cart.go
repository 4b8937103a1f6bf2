package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hemloft/storefront/internal/domain"
	"github.com/hemloft/storefront/internal/service"
	"github.com/hemloft/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
}

// NewCartHandler creates a cart HTTP handler.
func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{service: svc}
}

// AddItemRequest is the JSON body for adding an item to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// SetQuantityRequest is the JSON body for setting an item's quantity.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// cartResponse adds the derived totals to the cart payload so clients never
// compute prices themselves.
type cartResponse struct {
	*domain.Cart
	TotalAmount int64 `json:"total_amount"`
	ItemCount   int   `json:"item_count"`
}

func toCartResponse(cart *domain.Cart) cartResponse {
	return cartResponse{
		Cart:        cart,
		TotalAmount: cart.TotalAmount(),
		ItemCount:   cart.ItemCount(),
	}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), shopperIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: toCartResponse(cart)})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}

	cart, err := h.service.AddItem(r.Context(), shopperIDFromContext(r.Context()), service.AddItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: toCartResponse(cart)})
}

// SetQuantity handles PUT /api/v1/cart/items/{productID}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req SetQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.service.SetQuantity(r.Context(), shopperIDFromContext(r.Context()), productID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: toCartResponse(cart)})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	cart, err := h.service.RemoveItem(r.Context(), shopperIDFromContext(r.Context()), productID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: toCartResponse(cart)})
}

// GetTotal handles GET /api/v1/cart/total
func (h *CartHandler) GetTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.GetTotal(r.Context(), shopperIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]int64{"total_amount": total}})
}

// Clear handles DELETE /api/v1/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), shopperIDFromContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "cleared"}})
}

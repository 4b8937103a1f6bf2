package http

import (
	"net/http"

	"github.com/hemloft/storefront/internal/service"
)

// CheckoutHandler handles HTTP requests for the checkout endpoint.
type CheckoutHandler struct {
	service *service.CheckoutService
}

// NewCheckoutHandler creates a checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: svc}
}

// Submit handles POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitCheckoutInput
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Submit(r.Context(), shopperIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result})
}

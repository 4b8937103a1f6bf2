package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hemloft/storefront/internal/catalog"
)

// ProductHandler proxies catalog reads for the storefront UI.
type ProductHandler struct {
	catalog *catalog.Client
}

// NewProductHandler creates a product HTTP handler.
func NewProductHandler(c *catalog.Client) *ProductHandler {
	return &ProductHandler{catalog: c}
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: products})
}

// Get handles GET /api/v1/products/{productID}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: product})
}

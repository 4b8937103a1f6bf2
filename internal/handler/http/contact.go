package http

import (
	"net/http"

	"github.com/hemloft/storefront/internal/service"
)

// ContactHandler handles the contact form endpoint.
type ContactHandler struct {
	service *service.ContactService
}

// NewContactHandler creates a contact HTTP handler.
func NewContactHandler(svc *service.ContactService) *ContactHandler {
	return &ContactHandler{service: svc}
}

// Send handles POST /api/v1/contact
func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req service.SendMessageInput
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.SendMessage(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, response{Data: map[string]string{"status": "sent"}})
}

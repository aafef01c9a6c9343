package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/service"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout endpoints.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// CaptureRequest is the JSON request body for capturing an approved order.
type CaptureRequest struct {
	ProviderOrderID string `json:"providerOrderId" validate:"required"`
}

// CreateOrder handles POST /api/v1/checkout. The order snapshots the
// current cart; an empty cart is rejected before the provider is contacted.
func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	order, err := h.service.CreateOrder(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: order})
}

// Capture handles POST /api/v1/checkout/capture. On success the cart is
// cleared; on a declined payment the order is failed, the cart survives,
// and the client receives 422.
func (h *CheckoutHandler) Capture(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req CaptureRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	order, err := h.service.Capture(r.Context(), userID, req.ProviderOrderID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: order})
}

// Cancel handles POST /api/v1/checkout/{orderId}/cancel.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	orderID := chi.URLParam(r, "orderId")

	order, err := h.service.Cancel(r.Context(), userID, orderID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: order})
}

// GetOrder handles GET /api/v1/checkout/{orderId}.
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	orderID := chi.URLParam(r, "orderId")

	order, err := h.service.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: order})
}

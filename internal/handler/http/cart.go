package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/service"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart.
// Price arrives as the decimal string the catalog serves.
type AddItemRequest struct {
	ProductID   int64    `json:"productId" validate:"required,gt=0"`
	VendorID    int64    `json:"vendorId" validate:"required,gt=0"`
	VendorName  string   `json:"vendorName" validate:"required,min=1,max=200"`
	Name        string   `json:"name" validate:"required,min=1,max=500"`
	Description string   `json:"description"`
	Price       string   `json:"price" validate:"required"`
	Images      []string `json:"images"`
	CategoryID  *int64   `json:"categoryId"`
}

// UpdateQuantityRequest is the JSON request body for updating a line's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// ResolveConflictRequest is the JSON request body for settling a vendor conflict.
type ResolveConflictRequest struct {
	Action string `json:"action" validate:"required,oneof=replace cancel"`
}

// conflictPayload is the 409 body returned when adding a product from a
// different vendor. Both names feed the confirmation prompt.
type conflictPayload struct {
	Outcome           string `json:"outcome"`
	CurrentVendorName string `json:"currentVendorName"`
	NewVendorName     string `json:"newVendorName"`
}

// cartMutationPayload reports a line-level mutation. Updated false means the
// product was not in the cart and nothing changed.
type cartMutationPayload struct {
	Updated bool         `json:"updated"`
	Cart    *domain.Cart `json:"cart"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart. An absent cart is data: null, not a 404.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	cart, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: cart})
}

// GetSummary handles GET /api/v1/cart/summary.
func (h *CartHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: summary})
}

// AddItem handles POST /api/v1/cart/items. A vendor mismatch answers 409
// with both vendor names; the cart is not modified until the shopper
// resolves the conflict.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := h.service.AddItem(r.Context(), userID, service.AddItemInput{
		ProductID:   req.ProductID,
		VendorID:    req.VendorID,
		VendorName:  req.VendorName,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Images:      req.Images,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if result.Outcome == service.OutcomeConflict {
		writeJSON(w, http.StatusConflict, response{Data: conflictPayload{
			Outcome:           result.Outcome,
			CurrentVendorName: result.CurrentVendorName,
			NewVendorName:     result.NewVendorName,
		}})
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result.Cart})
}

// ResolveConflict handles POST /api/v1/cart/conflict.
func (h *CartHandler) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req ResolveConflictRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	cart, err := h.service.ResolveConflict(r.Context(), userID, req.Action)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: cart})
}

// GetPendingConflict handles GET /api/v1/cart/conflict.
func (h *CartHandler) GetPendingConflict(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	pending, err := h.service.PendingConflict(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: pending})
}

// UpdateQuantity handles PUT /api/v1/cart/items/{productId}. A quantity of
// zero or below removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	cart, updated, err := h.service.UpdateQuantity(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: cartMutationPayload{Updated: updated, Cart: cart}})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	cart, removed, err := h.service.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: cartMutationPayload{Updated: removed, Cart: cart}})
}

// ClearCart handles DELETE /api/v1/cart.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	if err := h.service.Clear(r.Context(), userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "cleared"}})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || productID <= 0 {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "productId must be a positive integer"},
		})
		return 0, false
	}
	return productID, true
}

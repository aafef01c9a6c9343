package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/service"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/validator"
)

// ReservationHandler handles HTTP requests for reservation endpoints.
type ReservationHandler struct {
	service *service.ReservationService
	logger  *slog.Logger
}

// NewReservationHandler creates a new reservation HTTP handler.
func NewReservationHandler(svc *service.ReservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: svc,
		logger:  logger,
	}
}

// BookRequest is the JSON request body for booking a reservation.
type BookRequest struct {
	ServiceID   int64  `json:"serviceId" validate:"required,gt=0"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required"`
	PartySize   int    `json:"partySize" validate:"required,gte=1,lte=50"`
	Notes       string `json:"notes" validate:"max=1000"`
	AcceptTerms bool   `json:"acceptTerms"`
}

// ChangeStatusRequest is the JSON request body for the back-office status change.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// Book handles POST /api/v1/reservations.
func (h *ReservationHandler) Book(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req BookRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	reservation, err := h.service.Book(r.Context(), userID, service.BookInput{
		ServiceID:   req.ServiceID,
		Date:        req.Date,
		Time:        req.Time,
		PartySize:   req.PartySize,
		Notes:       req.Notes,
		AcceptTerms: req.AcceptTerms,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: reservation})
}

// Detail handles GET /api/v1/reservations/{id}. Cancellability and the
// remaining-time label are evaluated at request time.
func (h *ReservationHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := reservationIDParam(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Detail(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: detail})
}

// Cancel handles POST /api/v1/reservations/{id}/cancel.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := reservationIDParam(w, r)
	if !ok {
		return
	}

	reservation, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: reservation})
}

// ChangeStatus handles PATCH /api/v1/reservations/{id}/status.
func (h *ReservationHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := reservationIDParam(w, r)
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	reservation, err := h.service.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: reservation})
}

func reservationIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "id must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/client"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/clock"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
	apperrors "github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/errors"
)

// BookInput holds the parameters for booking a reservation.
type BookInput struct {
	ServiceID   int64  `json:"serviceId" validate:"required,gt=0"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	PartySize   int    `json:"partySize" validate:"required,gte=1"`
	Notes       string `json:"notes"`
	AcceptTerms bool   `json:"acceptTerms"`
}

// ReservationDetail is a reservation together with its derived cancellation
// state. The derived fields are computed at query time and must not be
// cached: they decay as the clock advances.
type ReservationDetail struct {
	Reservation    *domain.Reservation `json:"reservation"`
	Cancellable    bool                `json:"cancellable"`
	HoursRemaining float64             `json:"hoursRemaining"`
	RemainingLabel string              `json:"remainingLabel"`
}

// ReservationService books and cancels reservations through the remote
// booking API and applies the cancellation window policy.
type ReservationService struct {
	booking client.BookingAPI
	window  domain.Window
	clock   clock.Clock
	logger  *slog.Logger
}

// NewReservationService creates a new reservation service.
func NewReservationService(booking client.BookingAPI, window domain.Window, clk clock.Clock, logger *slog.Logger) *ReservationService {
	return &ReservationService{
		booking: booking,
		window:  window,
		clock:   clk,
		logger:  logger,
	}
}

// Book validates the request, pre-checks slot availability, and creates the
// reservation. A taken slot is a conflict, not a validation failure.
func (s *ReservationService) Book(ctx context.Context, userID string, input BookInput) (*domain.Reservation, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("user id is required")
	}
	if input.ServiceID <= 0 {
		return nil, apperrors.InvalidInput("service id is required")
	}
	if input.Date == "" || input.Time == "" {
		return nil, apperrors.InvalidInput("date and time are required")
	}
	if input.PartySize < 1 {
		return nil, apperrors.InvalidInput("party size must be at least 1")
	}
	if !input.AcceptTerms {
		return nil, apperrors.InvalidInput("reservation terms must be accepted")
	}

	// Reject malformed instants and slots already in the past.
	candidate := &domain.Reservation{Date: input.Date, Time: input.Time}
	startsAt, err := s.window.StartsAt(candidate)
	if err != nil {
		return nil, apperrors.InvalidInput("date or time is not valid")
	}
	if startsAt.Before(s.clock.Now()) {
		return nil, apperrors.InvalidInput("reservation must be in the future")
	}

	available, err := s.booking.CheckAvailability(ctx, input.ServiceID, input.Date, input.Time)
	if err != nil {
		return nil, fmt.Errorf("availability pre-check: %w", err)
	}
	if !available {
		return nil, apperrors.Conflict("the selected slot is no longer available")
	}

	reservation, err := s.booking.CreateReservation(ctx, &client.CreateReservationInput{
		ServiceID: input.ServiceID,
		UserID:    userID,
		Date:      input.Date,
		Time:      input.Time,
		PartySize: input.PartySize,
		Notes:     input.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.logger.InfoContext(ctx, "reservation booked",
		slog.String("user_id", userID),
		slog.Int64("reservation_id", reservation.ID),
		slog.Int64("service_id", input.ServiceID),
		slog.String("date", input.Date),
		slog.String("time", input.Time),
	)

	return reservation, nil
}

// Detail returns the reservation with its cancellability and remaining-time
// label evaluated against the current instant.
func (s *ReservationService) Detail(ctx context.Context, id int64) (*ReservationDetail, error) {
	reservation, err := s.booking.GetReservation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}

	return s.describe(reservation)
}

// Cancel cancels a reservation when the lead-time window still allows it.
func (s *ReservationService) Cancel(ctx context.Context, id int64) (*domain.Reservation, error) {
	reservation, err := s.booking.GetReservation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}

	if reservation.Status == domain.ReservationCancelled {
		return nil, apperrors.Conflict("reservation is already cancelled")
	}

	now := s.clock.Now()
	ok, err := s.window.IsCancellable(reservation, now)
	if err != nil {
		return nil, fmt.Errorf("evaluate cancellation window: %w", err)
	}
	if !ok {
		label, lerr := s.window.RemainingLabel(reservation, now)
		if lerr != nil {
			label = "outside the cancellation window"
		}
		return nil, apperrors.Conflict("reservation can no longer be cancelled: " + label)
	}

	updated, err := s.booking.UpdateStatus(ctx, id, domain.ReservationCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	s.logger.InfoContext(ctx, "reservation cancelled",
		slog.Int64("reservation_id", id),
	)

	return updated, nil
}

// ChangeStatus is the back-office passthrough for vendor and admin screens.
func (s *ReservationService) ChangeStatus(ctx context.Context, id int64, status string) (*domain.Reservation, error) {
	switch status {
	case domain.ReservationPending, domain.ReservationConfirmed, domain.ReservationCancelled:
	default:
		return nil, apperrors.InvalidInput("status must be pending, confirmed or cancelled")
	}

	updated, err := s.booking.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update reservation status: %w", err)
	}

	s.logger.InfoContext(ctx, "reservation status changed",
		slog.Int64("reservation_id", id),
		slog.String("status", status),
	)

	return updated, nil
}

func (s *ReservationService) describe(reservation *domain.Reservation) (*ReservationDetail, error) {
	now := s.clock.Now()

	hours, err := s.window.HoursRemaining(reservation, now)
	if err != nil {
		return nil, fmt.Errorf("hours remaining: %w", err)
	}
	cancellable, err := s.window.IsCancellable(reservation, now)
	if err != nil {
		return nil, fmt.Errorf("evaluate cancellation window: %w", err)
	}
	label, err := s.window.RemainingLabel(reservation, now)
	if err != nil {
		return nil, fmt.Errorf("remaining label: %w", err)
	}

	return &ReservationDetail{
		Reservation:    reservation,
		Cancellable:    cancellable,
		HoursRemaining: hours,
		RemainingLabel: label,
	}, nil
}

package domain

import (
	"fmt"
	"math"
	"time"
)

// Reservation statuses.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
)

// Reservation is a restaurant-type booking read from the booking API. The
// service never owns this entity's lifecycle; it only derives cancellability
// from date and time versus the current instant.
type Reservation struct {
	ID        int64  `json:"id"`
	ServiceID int64  `json:"serviceId"`
	Date      string `json:"date"` // calendar date, 2006-01-02
	Time      string `json:"time"` // local time of day, 15:04 or 15:04:05
	PartySize int    `json:"partySize"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`
}

// ReservationDateFormat is the wire format of Reservation.Date.
const ReservationDateFormat = "2006-01-02"

// Window evaluates a reservation against the cancellation lead-time policy.
// Results are derived, never persisted: hours remaining shrink as the clock
// advances, so callers must re-evaluate at query time.
type Window struct {
	// MinLeadTime is the minimum time before the reservation instant at
	// which cancellation is still allowed. The boundary is inclusive.
	MinLeadTime time.Duration

	// Location interprets the reservation's local date and time.
	Location *time.Location
}

// DefaultWindow returns the marketplace policy: 24-hour lead time, local time.
func DefaultWindow(loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	return Window{MinLeadTime: 24 * time.Hour, Location: loc}
}

// StartsAt combines the reservation's date and time into an instant.
func (w Window) StartsAt(r *Reservation) (time.Time, error) {
	clock := r.Time
	if len(clock) > 5 {
		clock = clock[:5]
	}
	t, err := time.ParseInLocation(ReservationDateFormat+" 15:04", r.Date+" "+clock, w.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse reservation instant: %w", err)
	}
	return t, nil
}

// HoursRemaining returns the hours from now until the reservation instant.
// Negative when the reservation is in the past.
func (w Window) HoursRemaining(r *Reservation, now time.Time) (float64, error) {
	startsAt, err := w.StartsAt(r)
	if err != nil {
		return 0, err
	}
	return startsAt.Sub(now).Hours(), nil
}

// IsCancellable reports whether the reservation may still be cancelled: not
// already cancelled, and at least MinLeadTime before it starts. Exactly on
// the boundary counts as cancellable.
func (w Window) IsCancellable(r *Reservation, now time.Time) (bool, error) {
	if r.Status == ReservationCancelled {
		return false, nil
	}
	hours, err := w.HoursRemaining(r, now)
	if err != nil {
		return false, err
	}
	return hours >= w.MinLeadTime.Hours(), nil
}

// RemainingLabel returns the human-readable remaining-time category shown on
// reservation detail screens.
func (w Window) RemainingLabel(r *Reservation, now time.Time) (string, error) {
	hours, err := w.HoursRemaining(r, now)
	if err != nil {
		return "", err
	}

	switch {
	case hours < 0:
		return "reservation already passed", nil
	case hours < 24:
		return fmt.Sprintf("%d hours remaining (not cancellable)", int(math.Round(hours))), nil
	case hours < 48:
		return fmt.Sprintf("%d hours remaining", int(math.Round(hours))), nil
	default:
		return fmt.Sprintf("%d days remaining", int(hours/24)), nil
	}
}

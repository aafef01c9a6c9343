package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/httpclient"
)

const bookingCollaborator = "booking API"

// BookingAPI is the remote reservation system the marketplace delegates
// slot management to.
type BookingAPI interface {
	CheckAvailability(ctx context.Context, serviceID int64, date, timeSlot string) (bool, error)
	CreateReservation(ctx context.Context, input *CreateReservationInput) (*domain.Reservation, error)
	GetReservation(ctx context.Context, id int64) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*domain.Reservation, error)
}

// CreateReservationInput carries the fields the booking API needs to create
// a reservation.
type CreateReservationInput struct {
	ServiceID int64  `json:"serviceId"`
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"partySize"`
	Notes     string `json:"notes,omitempty"`
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// BookingClient is the HTTP implementation of BookingAPI.
type BookingClient struct {
	client  httpclient.Doer
	baseURL string
}

// NewBookingClient creates a booking API client for the service at baseURL.
func NewBookingClient(client httpclient.Doer, baseURL string) *BookingClient {
	return &BookingClient{
		client:  client,
		baseURL: baseURL,
	}
}

// CheckAvailability asks the booking API whether a slot is free.
func (c *BookingClient) CheckAvailability(ctx context.Context, serviceID int64, date, timeSlot string) (bool, error) {
	q := url.Values{}
	q.Set("serviceId", strconv.FormatInt(serviceID, 10))
	q.Set("date", date)
	q.Set("time", timeSlot)

	resp, err := c.client.Get(ctx, c.baseURL+"/api/reservations/availability?"+q.Encode())
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return false, httpclient.ParseResponseError(resp, bookingCollaborator)
	}
	defer func() { _ = resp.Body.Close() }()

	var out availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode availability response: %w", err)
	}

	return out.Available, nil
}

// CreateReservation registers a new reservation with the booking API.
func (c *BookingClient) CreateReservation(ctx context.Context, input *CreateReservationInput) (*domain.Reservation, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal create reservation request: %w", err)
	}

	resp, err := c.client.Post(ctx, c.baseURL+"/api/reservations", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, bookingCollaborator)
	}
	defer func() { _ = resp.Body.Close() }()

	var reservation domain.Reservation
	if err := json.NewDecoder(resp.Body).Decode(&reservation); err != nil {
		return nil, fmt.Errorf("decode reservation response: %w", err)
	}

	return &reservation, nil
}

// GetReservation retrieves a reservation by id.
func (c *BookingClient) GetReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	resp, err := c.client.Get(ctx, fmt.Sprintf("%s/api/reservations/%d", c.baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, bookingCollaborator)
	}
	defer func() { _ = resp.Body.Close() }()

	var reservation domain.Reservation
	if err := json.NewDecoder(resp.Body).Decode(&reservation); err != nil {
		return nil, fmt.Errorf("decode reservation response: %w", err)
	}

	return &reservation, nil
}

// UpdateStatus changes a reservation's status on the booking API and returns
// the updated reservation.
func (c *BookingClient) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Reservation, error) {
	body, err := json.Marshal(updateStatusRequest{Status: status})
	if err != nil {
		return nil, fmt.Errorf("marshal status update request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/api/reservations/%d/status", c.baseURL, id), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create status update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("update reservation status: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, bookingCollaborator)
	}
	defer func() { _ = resp.Body.Close() }()

	var reservation domain.Reservation
	if err := json.NewDecoder(resp.Body).Decode(&reservation); err != nil {
		return nil, fmt.Errorf("decode reservation response: %w", err)
	}

	return &reservation, nil
}

var _ BookingAPI = (*BookingClient)(nil)

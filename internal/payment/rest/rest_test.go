package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/payment"
	apperrors "github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/errors"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/httpclient"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 5 * time.Second
	cfg.MaxRetries = 0
	return NewProvider(httpclient.New(cfg), srv.URL)
}

func sampleCreateInput() *payment.CreateOrderInput {
	return &payment.CreateOrderInput{
		UserID: "user-001",
		Items: []domain.CartLine{
			{ProductID: 101, VendorID: 5, Name: "Café de olla", UnitPrice: 45.50, Quantity: 2},
		},
		Total:    91.00,
		Currency: "MXN",
	}
}

// ---------------------------------------------------------------------------
// CreateOrder
// ---------------------------------------------------------------------------

func TestCreateOrder_Success(t *testing.T) {
	var gotPath string
	var gotBody createOrderRequest

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(createOrderResponse{OrderID: "PAY-123"})
	})

	orderID, err := p.CreateOrder(context.Background(), sampleCreateInput())

	require.NoError(t, err)
	assert.Equal(t, "PAY-123", orderID)
	assert.Equal(t, "/api/payments/create-order", gotPath)
	assert.Equal(t, "user-001", gotBody.UserID)
	assert.InDelta(t, 91.00, gotBody.Total, 1e-9)
	require.Len(t, gotBody.Items, 1)
	assert.Equal(t, "Café de olla", gotBody.Items[0].Name)
	assert.Equal(t, 2, gotBody.Items[0].Quantity)
}

func TestCreateOrder_EmptyOrderID(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(createOrderResponse{})
	})

	_, err := p.CreateOrder(context.Background(), sampleCreateInput())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty order id")
}

func TestCreateOrder_GatewayError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"INVALID_INPUT","message":"total mismatch"}}`))
	})

	_, err := p.CreateOrder(context.Background(), sampleCreateInput())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "total mismatch")
}

// ---------------------------------------------------------------------------
// CaptureOrder
// ---------------------------------------------------------------------------

func TestCaptureOrder_Success(t *testing.T) {
	var gotBody captureOrderRequest

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payments/capture-order", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(captureOrderResponse{
			Success:       true,
			TransactionID: "TXN-789",
			OrderRef:      "PAY-123",
		})
	})

	result, err := p.CaptureOrder(context.Background(), &payment.CaptureOrderInput{
		ProviderOrderID: "PAY-123",
		UserID:          "user-001",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "TXN-789", result.TransactionID)
	assert.Equal(t, "PAY-123", result.OrderRef)
	assert.Empty(t, result.FailureReason)
	assert.Equal(t, "PAY-123", gotBody.OrderID)
	assert.Equal(t, "user-001", gotBody.UserID)
}

func TestCaptureOrder_Declined(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(captureOrderResponse{
			Success: false,
			Message: "insufficient funds",
		})
	})

	result, err := p.CaptureOrder(context.Background(), &payment.CaptureOrderInput{
		ProviderOrderID: "PAY-123",
		UserID:          "user-001",
	})

	// A decline is an answer, not an error.
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "insufficient funds", result.FailureReason)
}

func TestCaptureOrder_DeclinedWithoutMessage(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(captureOrderResponse{Success: false})
	})

	result, err := p.CaptureOrder(context.Background(), &payment.CaptureOrderInput{
		ProviderOrderID: "PAY-123",
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "payment declined by provider", result.FailureReason)
}

func TestCaptureOrder_GatewayError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"code":"PAYMENT_FAILED","message":"card expired"}}`))
	})

	result, err := p.CaptureOrder(context.Background(), &payment.CaptureOrderInput{
		ProviderOrderID: "PAY-123",
	})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
}

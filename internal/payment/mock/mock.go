package mock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/payment"
)

// Provider is a mock payment provider that always succeeds.
// It is intended for development and testing purposes.
type Provider struct{}

// NewProvider creates a new mock payment provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// CreateOrder simulates creating a provider order.
func (p *Provider) CreateOrder(_ context.Context, _ *payment.CreateOrderInput) (string, error) {
	// Simulate a small processing delay.
	time.Sleep(50 * time.Millisecond)

	return "mock_order_" + uuid.New().String(), nil
}

// CaptureOrder simulates a capture that always succeeds.
func (p *Provider) CaptureOrder(_ context.Context, input *payment.CaptureOrderInput) (*payment.CaptureResult, error) {
	// Simulate a small processing delay.
	time.Sleep(50 * time.Millisecond)

	return &payment.CaptureResult{
		Success:       true,
		TransactionID: "mock_txn_" + uuid.New().String(),
		OrderRef:      input.ProviderOrderID,
	}, nil
}

package payment

import (
	"context"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
)

// CreateOrderInput holds the parameters for creating a provider order. The
// provider receives the full item breakdown so the buyer sees line-level
// detail in the approval flow.
type CreateOrderInput struct {
	UserID   string
	Items    []domain.CartLine
	Total    float64
	Currency string
}

// CaptureOrderInput holds the parameters for capturing an approved order.
type CaptureOrderInput struct {
	ProviderOrderID string
	UserID          string
}

// CaptureResult holds the outcome of a capture attempt. Success false with a
// FailureReason is a declined payment, not a transport error.
type CaptureResult struct {
	Success       bool
	TransactionID string
	OrderRef      string
	FailureReason string
}

// Provider defines the interface for payment provider integrations.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "rest").
	Name() string

	// CreateOrder registers a provider-side order for buyer approval and
	// returns the provider's order identifier.
	CreateOrder(ctx context.Context, input *CreateOrderInput) (string, error)

	// CaptureOrder captures the funds for an approved order.
	CaptureOrder(ctx context.Context, input *CaptureOrderInput) (*CaptureResult, error)
}

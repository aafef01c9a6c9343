package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/payment"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/httpclient"
)

const collaborator = "payment gateway"

// Provider talks to the payment gateway over its REST API.
type Provider struct {
	client  httpclient.Doer
	baseURL string
}

// NewProvider creates a payment provider backed by the gateway at baseURL.
func NewProvider(client httpclient.Doer, baseURL string) *Provider {
	return &Provider{
		client:  client,
		baseURL: baseURL,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "rest"
}

type createOrderRequest struct {
	UserID   string            `json:"userId"`
	Items    []createOrderItem `json:"items"`
	Total    float64           `json:"total"`
	Currency string            `json:"currency"`
}

type createOrderItem struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

type createOrderResponse struct {
	OrderID string `json:"orderID"`
}

type captureOrderRequest struct {
	OrderID string `json:"orderID"`
	UserID  string `json:"userId"`
}

type captureOrderResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	OrderRef      string `json:"orderRef"`
	Message       string `json:"message"`
}

// CreateOrder registers an order with the gateway and returns its identifier.
func (p *Provider) CreateOrder(ctx context.Context, input *payment.CreateOrderInput) (string, error) {
	items := make([]createOrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		items = append(items, createOrderItem{
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	body, err := json.Marshal(createOrderRequest{
		UserID:   input.UserID,
		Items:    items,
		Total:    input.Total,
		Currency: input.Currency,
	})
	if err != nil {
		return "", fmt.Errorf("marshal create order request: %w", err)
	}

	resp, err := p.client.Post(ctx, p.baseURL+"/api/payments/create-order", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create provider order: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", httpclient.ParseResponseError(resp, collaborator)
	}
	defer func() { _ = resp.Body.Close() }()

	var out createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode create order response: %w", err)
	}
	if out.OrderID == "" {
		return "", fmt.Errorf("%s returned an empty order id", collaborator)
	}

	return out.OrderID, nil
}

// CaptureOrder captures an approved order. A declined capture comes back as
// a result with Success false; transport and gateway failures are errors.
func (p *Provider) CaptureOrder(ctx context.Context, input *payment.CaptureOrderInput) (*payment.CaptureResult, error) {
	body, err := json.Marshal(captureOrderRequest{
		OrderID: input.ProviderOrderID,
		UserID:  input.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal capture order request: %w", err)
	}

	resp, err := p.client.Post(ctx, p.baseURL+"/api/payments/capture-order", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("capture provider order: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpclient.ParseResponseError(resp, collaborator)
	}
	defer func() { _ = resp.Body.Close() }()

	var out captureOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode capture order response: %w", err)
	}

	result := &payment.CaptureResult{
		Success:       out.Success,
		TransactionID: out.TransactionID,
		OrderRef:      out.OrderRef,
	}
	if !out.Success {
		result.FailureReason = out.Message
		if result.FailureReason == "" {
			result.FailureReason = "payment declined by provider"
		}
	}

	return result, nil
}

var _ payment.Provider = (*Provider)(nil)

package domain

import "time"

// Checkout order statuses. An order walks created -> awaiting_approval ->
// capturing -> {succeeded, failed, cancelled}; the three final states are
// terminal and a new checkout must be initiated by the shopper to retry.
const (
	CheckoutCreated           = "created"
	CheckoutAwaitingApproval  = "awaiting_approval"
	CheckoutCapturing         = "capturing"
	CheckoutSucceeded         = "succeeded"
	CheckoutFailed            = "failed"
	CheckoutCancelled         = "cancelled"
)

// CheckoutOrder tracks one attempt to pay for the cart through the external
// payment provider. Items are a snapshot of the cart at creation time.
type CheckoutOrder struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Status          string     `json:"status"`
	VendorID        int64      `json:"vendorId"`
	VendorName      string     `json:"vendorName"`
	Items           []CartLine `json:"items"`
	TotalAmount     float64    `json:"totalAmount"`
	Currency        string     `json:"currency"`
	ProviderOrderID string     `json:"providerOrderId,omitempty"`
	TransactionID   string     `json:"transactionId,omitempty"`
	FailureReason   string     `json:"failureReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// IsTerminal reports whether the order reached a final state.
func (o *CheckoutOrder) IsTerminal() bool {
	return o.Status == CheckoutSucceeded || o.Status == CheckoutFailed || o.Status == CheckoutCancelled
}

// CanCapture reports whether a capture attempt is allowed from the current state.
func (o *CheckoutOrder) CanCapture() bool {
	return o.Status == CheckoutAwaitingApproval
}

// CanCancel reports whether a user-initiated cancellation is allowed.
// Capturing is included: the provider may report buyer cancellation while a
// capture is being arranged.
func (o *CheckoutOrder) CanCancel() bool {
	return o.Status == CheckoutCreated || o.Status == CheckoutAwaitingApproval || o.Status == CheckoutCapturing
}

package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
	pkgkafka "github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/kafka"
)

// Kafka topic constants for marketplace domain events.
const (
	TopicCartUpdated       = "marketplace.cart.updated"
	TopicCartCleared       = "marketplace.cart.cleared"
	TopicCheckoutCompleted = "marketplace.checkout.completed"
	TopicCheckoutFailed    = "marketplace.checkout.failed"
)

// Aggregate type constants.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeCheckout = "checkout"
)

// Source identifier for events originating from this service.
const SourceMarketplace = "marketplace-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID     string  `json:"user_id"`
	VendorID   int64   `json:"vendor_id"`
	VendorName string  `json:"vendor_name"`
	TotalItems int     `json:"total_items"`
	TotalPrice float64 `json:"total_price"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	UserID string `json:"user_id"`
}

// CheckoutCompletedData is the payload for a checkout.completed event.
type CheckoutCompletedData struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	VendorID      int64   `json:"vendor_id"`
	TransactionID string  `json:"transaction_id"`
	TotalAmount   float64 `json:"total_amount"`
	Currency      string  `json:"currency"`
}

// CheckoutFailedData is the payload for a checkout.failed event.
type CheckoutFailedData struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	FailureReason string `json:"failure_reason"`
}

// Publisher is the event surface the services depend on. The cart service
// announces every successful mutation; listeners such as the storefront badge
// and analytics consume them.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, userID string, cart *domain.Cart) error
	PublishCartCleared(ctx context.Context, userID string) error
	PublishCheckoutCompleted(ctx context.Context, order *domain.CheckoutOrder) error
	PublishCheckoutFailed(ctx context.Context, order *domain.CheckoutOrder) error
}

// Producer publishes marketplace domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event after a successful
// cart mutation.
func (p *Producer) PublishCartUpdated(ctx context.Context, userID string, cart *domain.Cart) error {
	data := CartUpdatedData{
		UserID:     userID,
		VendorID:   cart.VendorID,
		VendorName: cart.VendorName,
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, userID, AggregateTypeCart, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("user_id", userID),
		slog.Int64("vendor_id", cart.VendorID),
		slog.Int("total_items", data.TotalItems),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event after the cart is
// emptied or destroyed.
func (p *Producer) PublishCartCleared(ctx context.Context, userID string) error {
	data := CartClearedData{UserID: userID}

	event, err := pkgkafka.NewEvent(TopicCartCleared, userID, AggregateTypeCart, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("user_id", userID),
	)

	return nil
}

// PublishCheckoutCompleted publishes a checkout.completed event.
func (p *Producer) PublishCheckoutCompleted(ctx context.Context, order *domain.CheckoutOrder) error {
	data := CheckoutCompletedData{
		ID:            order.ID,
		UserID:        order.UserID,
		VendorID:      order.VendorID,
		TransactionID: order.TransactionID,
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutCompleted, order.ID, AggregateTypeCheckout, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create checkout.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCheckoutCompleted, event); err != nil {
		return fmt.Errorf("publish checkout.completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.completed event",
		slog.String("checkout_id", order.ID),
		slog.String("transaction_id", order.TransactionID),
	)

	return nil
}

// PublishCheckoutFailed publishes a checkout.failed event.
func (p *Producer) PublishCheckoutFailed(ctx context.Context, order *domain.CheckoutOrder) error {
	data := CheckoutFailedData{
		ID:            order.ID,
		UserID:        order.UserID,
		FailureReason: order.FailureReason,
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutFailed, order.ID, AggregateTypeCheckout, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create checkout.failed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCheckoutFailed, event); err != nil {
		return fmt.Errorf("publish checkout.failed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.failed event",
		slog.String("checkout_id", order.ID),
		slog.String("failure_reason", order.FailureReason),
	)

	return nil
}

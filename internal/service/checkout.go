package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/event"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/payment"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/repository"
	apperrors "github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/errors"
)

// CartAccess is the slice of the cart service the checkout flow needs: a
// snapshot to charge for and a clear on capture success.
type CartAccess interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// CheckoutService walks an order through created -> awaiting_approval ->
// capturing -> {succeeded, failed, cancelled}. The cart is cleared only
// when a capture succeeds; every failure path leaves it intact so the
// shopper can retry.
type CheckoutService struct {
	repo     repository.CheckoutRepository
	carts    CartAccess
	provider payment.Provider
	notifier event.Publisher
	logger   *slog.Logger
	currency string
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	repo repository.CheckoutRepository,
	carts CartAccess,
	provider payment.Provider,
	notifier event.Publisher,
	logger *slog.Logger,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		repo:     repo,
		carts:    carts,
		provider: provider,
		notifier: notifier,
		logger:   logger,
		currency: currency,
	}
}

// CreateOrder opens a checkout for the user's current cart. Preconditions
// (authenticated user, non-empty cart) are checked before the payment
// provider is contacted; on violation the provider is never reached.
func (s *CheckoutService) CreateOrder(ctx context.Context, userID string) (*domain.CheckoutOrder, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("user id is required")
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	order := &domain.CheckoutOrder{
		ID:          uuid.New().String(),
		UserID:      userID,
		Status:      domain.CheckoutCreated,
		VendorID:    cart.VendorID,
		VendorName:  cart.VendorName,
		Items:       cart.Items,
		TotalAmount: cart.TotalPrice(),
		Currency:    s.currency,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	providerOrderID, err := s.provider.CreateOrder(ctx, &payment.CreateOrderInput{
		UserID:   userID,
		Items:    cart.Items,
		Total:    order.TotalAmount,
		Currency: order.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("create provider order: %w", err)
	}

	order.ProviderOrderID = providerOrderID
	order.Status = domain.CheckoutAwaitingApproval

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("persist checkout order: %w", err)
	}

	s.logger.InfoContext(ctx, "checkout order created",
		slog.String("checkout_id", order.ID),
		slog.String("user_id", userID),
		slog.String("provider_order_id", providerOrderID),
		slog.Float64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// Capture settles an approved order with the payment provider. On success
// the cart is cleared and the order becomes succeeded; on a declined or
// failed capture the order becomes failed and the cart is left intact.
func (s *CheckoutService) Capture(ctx context.Context, userID, providerOrderID string) (*domain.CheckoutOrder, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("user id is required")
	}
	if providerOrderID == "" {
		return nil, apperrors.InvalidInput("provider order id is required")
	}

	order, err := s.repo.GetByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		return nil, fmt.Errorf("get checkout order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperrors.Forbidden("checkout order belongs to another user")
	}
	if !order.CanCapture() {
		return nil, apperrors.Conflict(fmt.Sprintf("checkout order is %s, not awaiting approval", order.Status))
	}

	order.Status = domain.CheckoutCapturing
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("mark order capturing: %w", err)
	}

	result, err := s.provider.CaptureOrder(ctx, &payment.CaptureOrderInput{
		ProviderOrderID: providerOrderID,
		UserID:          userID,
	})
	if err != nil {
		s.markFailed(ctx, order, err.Error())
		return nil, fmt.Errorf("capture provider order: %w", err)
	}

	if !result.Success {
		s.markFailed(ctx, order, result.FailureReason)
		return nil, apperrors.PaymentFailed(result.FailureReason)
	}

	order.Status = domain.CheckoutSucceeded
	order.TransactionID = result.TransactionID
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("mark order succeeded: %w", err)
	}

	// The payment is settled; a failed cart clear must not fail the capture.
	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after capture",
			slog.String("checkout_id", order.ID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.notifier.PublishCheckoutCompleted(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.completed event",
			slog.String("checkout_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout captured",
		slog.String("checkout_id", order.ID),
		slog.String("user_id", userID),
		slog.String("transaction_id", order.TransactionID),
	)

	return order, nil
}

// Cancel aborts an open checkout at the user's request. The cart is never
// touched: cancelling a checkout is not clearing a cart.
func (s *CheckoutService) Cancel(ctx context.Context, userID, orderID string) (*domain.CheckoutOrder, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("user id is required")
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get checkout order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperrors.Forbidden("checkout order belongs to another user")
	}
	if !order.CanCancel() {
		return nil, apperrors.Conflict(fmt.Sprintf("checkout order is already %s", order.Status))
	}

	order.Status = domain.CheckoutCancelled
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("mark order cancelled: %w", err)
	}

	s.logger.InfoContext(ctx, "checkout cancelled",
		slog.String("checkout_id", order.ID),
		slog.String("user_id", userID),
	)

	return order, nil
}

// GetOrder retrieves one of the user's checkout orders.
func (s *CheckoutService) GetOrder(ctx context.Context, userID, orderID string) (*domain.CheckoutOrder, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("user id is required")
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get checkout order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperrors.Forbidden("checkout order belongs to another user")
	}

	return order, nil
}

func (s *CheckoutService) markFailed(ctx context.Context, order *domain.CheckoutOrder, reason string) {
	order.Status = domain.CheckoutFailed
	order.FailureReason = reason

	if err := s.repo.Update(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark checkout order failed",
			slog.String("checkout_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.notifier.PublishCheckoutFailed(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.failed event",
			slog.String("checkout_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.WarnContext(ctx, "checkout capture failed",
		slog.String("checkout_id", order.ID),
		slog.String("failure_reason", reason),
	)
}

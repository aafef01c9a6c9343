package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/event"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/repository"
	apperrors "github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/errors"
)

// Add outcomes. A vendor conflict is an answer for the caller to act on,
// not an error.
const (
	OutcomeAdded    = "added"
	OutcomeConflict = "conflict_requires_confirmation"
)

// Conflict resolution actions.
const (
	ResolveReplace = "replace"
	ResolveCancel  = "cancel"
)

// AddItemInput holds the product and vendor being added to the cart. Price
// arrives as the decimal string the catalog API serves.
type AddItemInput struct {
	ProductID   int64    `json:"productId" validate:"required,gt=0"`
	VendorID    int64    `json:"vendorId" validate:"required,gt=0"`
	VendorName  string   `json:"vendorName" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       string   `json:"price" validate:"required"`
	Images      []string `json:"images"`
	CategoryID  *int64   `json:"categoryId"`
}

// AddResult is the outcome of an AddItem call. On a conflict the cart is
// untouched and both vendor names are carried for the confirmation prompt.
type AddResult struct {
	Outcome           string
	Cart              *domain.Cart
	CurrentVendorName string
	NewVendorName     string
}

// CartSummary is the badge-level view of the cart.
type CartSummary struct {
	TotalItems int     `json:"totalItems"`
	TotalPrice float64 `json:"totalPrice"`
}

// CartService implements the business logic for cart operations.
type CartService struct {
	repo     repository.CartRepository
	notifier event.Publisher
	logger   *slog.Logger

	// locks serializes the read-modify-write cycle per user so concurrent
	// mutations cannot violate the single-vendor invariant.
	locks sync.Map
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, notifier event.Publisher, logger *slog.Logger) *CartService {
	return &CartService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *CartService) userLock(userID string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// GetCart retrieves the cart for a user. Returns nil when no cart exists;
// an absent cart is a state, not an error.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("user id is required")
	}
	return s.loadCart(ctx, userID)
}

// Summary returns the badge counters for the user's cart. An absent cart
// yields a zero summary.
func (s *CartService) Summary(ctx context.Context, userID string) (*CartSummary, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return &CartSummary{}, nil
	}
	return &CartSummary{
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
	}, nil
}

// AddItem adds a product to the user's cart. If the cart is empty or already
// scoped to the product's vendor, the line is merged (quantity +1) or
// appended at quantity 1. If the cart belongs to a different vendor, nothing
// is mutated: the product is retained as a pending item and a conflict
// outcome is returned for the shopper to resolve.
func (s *CartService) AddItem(ctx context.Context, userID string, input AddItemInput) (*AddResult, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("user id is required")
	}

	line, err := buildLine(input)
	if err != nil {
		return nil, err
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cart != nil && cart.VendorID != input.VendorID {
		pending := &domain.PendingItem{
			Line:              *line,
			VendorID:          input.VendorID,
			VendorName:        input.VendorName,
			CurrentVendorName: cart.VendorName,
		}
		if err := s.repo.SavePending(ctx, userID, pending); err != nil {
			return nil, fmt.Errorf("save pending item: %w", err)
		}

		s.logger.InfoContext(ctx, "vendor conflict, confirmation required",
			slog.String("user_id", userID),
			slog.Int64("current_vendor_id", cart.VendorID),
			slog.Int64("new_vendor_id", input.VendorID),
		)

		return &AddResult{
			Outcome:           OutcomeConflict,
			Cart:              cart,
			CurrentVendorName: cart.VendorName,
			NewVendorName:     input.VendorName,
		}, nil
	}

	if cart == nil {
		cart = &domain.Cart{
			VendorID:   input.VendorID,
			VendorName: input.VendorName,
			Items:      []domain.CartLine{*line},
		}
	} else if i := cart.FindLine(input.ProductID); i >= 0 {
		cart.Items[i].Quantity++
	} else {
		cart.Items = append(cart.Items, *line)
	}

	if err := s.repo.Save(ctx, userID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.notifyUpdated(ctx, userID, cart)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.Int64("product_id", input.ProductID),
		slog.Int64("vendor_id", input.VendorID),
	)

	return &AddResult{Outcome: OutcomeAdded, Cart: cart}, nil
}

// PendingConflict returns the retained conflict item for the user, nil when
// there is none.
func (s *CartService) PendingConflict(ctx context.Context, userID string) (*domain.PendingItem, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("user id is required")
	}

	pending, err := s.repo.GetPending(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pending item: %w", err)
	}
	return pending, nil
}

// ResolveConflict settles a pending vendor conflict. "replace" discards the
// existing cart unconditionally and starts a fresh one scoped to the new
// vendor with the pending product at quantity 1; "cancel" discards the
// pending item and leaves the cart exactly as it was. Both clear the
// pending reference.
func (s *CartService) ResolveConflict(ctx context.Context, userID, action string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("user id is required")
	}
	if action != ResolveReplace && action != ResolveCancel {
		return nil, apperrors.InvalidInput("action must be 'replace' or 'cancel'")
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	pending, err := s.repo.GetPending(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("pending conflict", userID)
		}
		return nil, fmt.Errorf("get pending item: %w", err)
	}

	if err := s.repo.DeletePending(ctx, userID); err != nil {
		return nil, fmt.Errorf("delete pending item: %w", err)
	}

	if action == ResolveCancel {
		s.logger.InfoContext(ctx, "vendor conflict cancelled",
			slog.String("user_id", userID),
		)
		return s.loadCart(ctx, userID)
	}

	line := pending.Line
	line.Quantity = 1

	cart := &domain.Cart{
		VendorID:   pending.VendorID,
		VendorName: pending.VendorName,
		Items:      []domain.CartLine{line},
	}

	if err := s.repo.Save(ctx, userID, cart); err != nil {
		return nil, fmt.Errorf("save replacement cart: %w", err)
	}

	s.notifyUpdated(ctx, userID, cart)

	s.logger.InfoContext(ctx, "cart replaced after vendor conflict",
		slog.String("user_id", userID),
		slog.Int64("vendor_id", cart.VendorID),
	)

	return cart, nil
}

// UpdateQuantity sets a line's quantity. A quantity of zero or below removes
// the line, and removing the last line destroys the cart. An unknown product
// is a no-op reported through the boolean, not an error.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, bool, error) {
	if userID == "" {
		return nil, false, apperrors.Unauthorized("user id is required")
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return s.updateQuantityLocked(ctx, userID, productID, quantity)
}

// RemoveItem removes a line from the cart. Equivalent to UpdateQuantity with
// a quantity of zero.
func (s *CartService) RemoveItem(ctx context.Context, userID string, productID int64) (*domain.Cart, bool, error) {
	if userID == "" {
		return nil, false, apperrors.Unauthorized("user id is required")
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return s.updateQuantityLocked(ctx, userID, productID, 0)
}

func (s *CartService) updateQuantityLocked(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, bool, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if cart == nil {
		return nil, false, nil
	}

	i := cart.FindLine(productID)
	if i < 0 {
		return cart, false, nil
	}

	if quantity <= 0 {
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
	} else {
		cart.Items[i].Quantity = quantity
	}

	// No empty-vendor shells: the last removed line destroys the cart.
	if len(cart.Items) == 0 {
		if err := s.repo.Delete(ctx, userID); err != nil {
			return nil, false, fmt.Errorf("delete emptied cart: %w", err)
		}
		s.notifyCleared(ctx, userID)

		s.logger.InfoContext(ctx, "cart destroyed after last item removed",
			slog.String("user_id", userID),
			slog.Int64("product_id", productID),
		)

		return nil, true, nil
	}

	if err := s.repo.Save(ctx, userID, cart); err != nil {
		return nil, false, fmt.Errorf("save cart: %w", err)
	}

	s.notifyUpdated(ctx, userID, cart)

	s.logger.InfoContext(ctx, "cart line updated",
		slog.String("user_id", userID),
		slog.Int64("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return cart, true, nil
}

// Clear unconditionally destroys the user's cart. Clearing an absent cart
// is not an error.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.Unauthorized("user id is required")
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	s.notifyCleared(ctx, userID)

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("user_id", userID),
	)

	return nil
}

// loadCart fetches the user's cart, mapping absence to nil. Stored data that
// violates cart invariants is dropped and also reads as nil.
func (s *CartService) loadCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if !cart.Valid() {
		s.logger.WarnContext(ctx, "discarding invalid stored cart",
			slog.String("user_id", userID),
		)
		if err := s.repo.Delete(ctx, userID); err != nil {
			return nil, fmt.Errorf("delete invalid cart: %w", err)
		}
		return nil, nil
	}

	return cart, nil
}

// notifyUpdated broadcasts a cart-changed notification. Publish failures are
// logged, never surfaced: the mutation already persisted.
func (s *CartService) notifyUpdated(ctx context.Context, userID string, cart *domain.Cart) {
	if err := s.notifier.PublishCartUpdated(ctx, userID, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CartService) notifyCleared(ctx context.Context, userID string) {
	if err := s.notifier.PublishCartCleared(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// buildLine validates the product fields and constructs a quantity-1 line.
func buildLine(input AddItemInput) (*domain.CartLine, error) {
	if input.ProductID <= 0 {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.VendorID <= 0 {
		return nil, apperrors.InvalidInput("vendor id is required")
	}
	if input.VendorName == "" {
		return nil, apperrors.InvalidInput("vendor name is required")
	}
	if input.Price == "" {
		return nil, apperrors.InvalidInput("product price is required")
	}

	price, err := strconv.ParseFloat(input.Price, 64)
	if err != nil {
		return nil, apperrors.InvalidInput("product price is not a valid number")
	}
	// ParseFloat accepts "NaN" and "Inf" without error; neither is a price.
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, apperrors.InvalidInput("product price is not a valid number")
	}
	if price < 0 {
		return nil, apperrors.InvalidInput("product price must not be negative")
	}

	return &domain.CartLine{
		ProductID:   input.ProductID,
		VendorID:    input.VendorID,
		Name:        input.Name,
		Description: input.Description,
		UnitPrice:   price,
		Images:      input.Images,
		CategoryID:  input.CategoryID,
		Quantity:    1,
	}, nil
}

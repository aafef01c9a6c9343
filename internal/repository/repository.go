package repository

import (
	"context"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
)

// CartRepository persists per-user carts and the pending item retained while
// a vendor conflict awaits resolution.
type CartRepository interface {
	// Get retrieves the user's cart. Returns a NotFound error when no cart
	// is stored or the stored payload is corrupt.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// Save persists the cart, overwriting any existing one for the user.
	Save(ctx context.Context, userID string, cart *domain.Cart) error

	// Delete removes the user's cart. Deleting an absent cart is not an error.
	Delete(ctx context.Context, userID string) error

	// GetPending retrieves the retained conflict item, NotFound when none.
	GetPending(ctx context.Context, userID string) (*domain.PendingItem, error)

	// SavePending retains a conflict item for later resolution.
	SavePending(ctx context.Context, userID string, item *domain.PendingItem) error

	// DeletePending discards the retained conflict item, if any.
	DeletePending(ctx context.Context, userID string) error
}

// CheckoutRepository persists checkout orders.
type CheckoutRepository interface {
	// Create inserts a new checkout order.
	Create(ctx context.Context, order *domain.CheckoutOrder) error

	// GetByID retrieves a checkout order by its ID.
	GetByID(ctx context.Context, id string) (*domain.CheckoutOrder, error)

	// GetByProviderOrderID retrieves a checkout order by the payment
	// provider's order identifier.
	GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.CheckoutOrder, error)

	// Update modifies an existing checkout order.
	Update(ctx context.Context, order *domain.CheckoutOrder) error
}

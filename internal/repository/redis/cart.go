package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
	apperrors "github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/errors"
)

const (
	cartKeyPrefix    = "cart:"
	pendingKeyPrefix = "cart:pending:"
)

// CartRepository implements repository.CartRepository using Redis.
type CartRepository struct {
	client     *redis.Client
	cartTTL    time.Duration
	pendingTTL time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository. cartTTL
// bounds how long an abandoned cart survives; pendingTTL bounds how long an
// unresolved vendor conflict is retained.
func NewCartRepository(client *redis.Client, cartTTL, pendingTTL time.Duration) *CartRepository {
	return &CartRepository{
		client:     client,
		cartTTL:    cartTTL,
		pendingTTL: pendingTTL,
	}
}

// Get retrieves a cart by user ID from Redis. A payload that no longer
// decodes is treated the same as an absent cart: the key is dropped and
// NotFound is returned, so the shopper starts from a clean slate instead of
// hitting an error they cannot act on.
func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	key := cartKeyPrefix + userID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", userID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		r.client.Del(ctx, key)
		return nil, apperrors.NotFound("cart", userID)
	}

	return &cart, nil
}

// Save persists a cart to Redis with the configured TTL.
func (r *CartRepository) Save(ctx context.Context, userID string, cart *domain.Cart) error {
	key := cartKeyPrefix + userID

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.cartTTL).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}

// Delete removes a cart from Redis by user ID.
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	key := cartKeyPrefix + userID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}

	return nil
}

// GetPending retrieves the conflict item awaiting resolution for the user.
func (r *CartRepository) GetPending(ctx context.Context, userID string) (*domain.PendingItem, error) {
	key := pendingKeyPrefix + userID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("pending item", userID)
		}
		return nil, fmt.Errorf("redis get pending item: %w", err)
	}

	var item domain.PendingItem
	if err := json.Unmarshal(data, &item); err != nil {
		r.client.Del(ctx, key)
		return nil, apperrors.NotFound("pending item", userID)
	}

	return &item, nil
}

// SavePending retains a conflict item under a short TTL so an abandoned
// confirmation dialog does not pin the item forever.
func (r *CartRepository) SavePending(ctx context.Context, userID string, item *domain.PendingItem) error {
	key := pendingKeyPrefix + userID

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal pending item: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.pendingTTL).Err(); err != nil {
		return fmt.Errorf("redis set pending item: %w", err)
	}

	return nil
}

// DeletePending discards the retained conflict item, if any.
func (r *CartRepository) DeletePending(ctx context.Context, userID string) error {
	key := pendingKeyPrefix + userID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del pending item: %w", err)
	}

	return nil
}

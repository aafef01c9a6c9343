package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
	apperrors "github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/errors"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies
// it too, which keeps the tests off a live database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CheckoutRepository implements repository.CheckoutRepository using PostgreSQL.
type CheckoutRepository struct {
	db DB
}

// NewCheckoutRepository creates a new PostgreSQL-backed checkout repository.
func NewCheckoutRepository(db DB) *CheckoutRepository {
	return &CheckoutRepository{db: db}
}

// Create inserts a new checkout order into the database.
func (r *CheckoutRepository) Create(ctx context.Context, order *domain.CheckoutOrder) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	query := `
		INSERT INTO checkout_orders (
			id, user_id, status,
			vendor_id, vendor_name, items,
			total_amount, currency,
			provider_order_id, transaction_id, failure_reason,
			created_at, updated_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8,
			$9, $10, $11,
			$12, $13
		)`

	_, err = r.db.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.Status,
		order.VendorID,
		order.VendorName,
		itemsJSON,
		order.TotalAmount,
		order.Currency,
		nullableString(order.ProviderOrderID),
		nullableString(order.TransactionID),
		nullableString(order.FailureReason),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkout order: %w", err)
	}

	return nil
}

// GetByID retrieves a checkout order by its ID.
func (r *CheckoutRepository) GetByID(ctx context.Context, id string) (*domain.CheckoutOrder, error) {
	query := `
		SELECT id, user_id, status,
			vendor_id, vendor_name, items,
			total_amount, currency,
			provider_order_id, transaction_id, failure_reason,
			created_at, updated_at
		FROM checkout_orders
		WHERE id = $1`

	return r.scanOrder(ctx, query, id)
}

// GetByProviderOrderID retrieves a checkout order by the payment provider's
// order identifier, assigned when the provider order is created.
func (r *CheckoutRepository) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.CheckoutOrder, error) {
	query := `
		SELECT id, user_id, status,
			vendor_id, vendor_name, items,
			total_amount, currency,
			provider_order_id, transaction_id, failure_reason,
			created_at, updated_at
		FROM checkout_orders
		WHERE provider_order_id = $1`

	return r.scanOrder(ctx, query, providerOrderID)
}

// Update modifies an existing checkout order in the database.
func (r *CheckoutRepository) Update(ctx context.Context, order *domain.CheckoutOrder) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	order.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE checkout_orders
		SET status = $1, items = $2,
			total_amount = $3, currency = $4,
			provider_order_id = $5, transaction_id = $6, failure_reason = $7,
			updated_at = $8
		WHERE id = $9`

	ct, err := r.db.Exec(ctx, query,
		order.Status,
		itemsJSON,
		order.TotalAmount,
		order.Currency,
		nullableString(order.ProviderOrderID),
		nullableString(order.TransactionID),
		nullableString(order.FailureReason),
		order.UpdatedAt,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("update checkout order: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("checkout_order", order.ID)
	}

	return nil
}

// scanOrder executes a query expected to return a single checkout order row.
func (r *CheckoutRepository) scanOrder(ctx context.Context, query string, args ...any) (*domain.CheckoutOrder, error) {
	var (
		order           domain.CheckoutOrder
		itemsJSON       []byte
		providerOrderID *string
		transactionID   *string
		failureReason   *string
	)

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.VendorID,
		&order.VendorName,
		&itemsJSON,
		&order.TotalAmount,
		&order.Currency,
		&providerOrderID,
		&transactionID,
		&failureReason,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan checkout order: %w", err)
	}

	if itemsJSON != nil {
		if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
	}
	if order.Items == nil {
		order.Items = []domain.CartLine{}
	}

	if providerOrderID != nil {
		order.ProviderOrderID = *providerOrderID
	}
	if transactionID != nil {
		order.TransactionID = *transactionID
	}
	if failureReason != nil {
		order.FailureReason = *failureReason
	}

	return &order, nil
}

// nullableString returns nil if the string is empty, otherwise a pointer to the string.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

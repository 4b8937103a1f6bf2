package repository

import (
	"context"

	"github.com/hemloft/storefront/internal/domain"
)

// CartRepository persists cart snapshots keyed by shopper ID.
type CartRepository interface {
	// Get retrieves the cart for a shopper. Returns a NotFound error when no
	// snapshot exists.
	Get(ctx context.Context, shopperID string) (*domain.Cart, error)

	// Save writes the cart snapshot, overwriting any existing one.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the shopper's cart snapshot.
	Delete(ctx context.Context, shopperID string) error
}

// OrderRepository persists order records created by completed checkouts.
type OrderRepository interface {
	// Create inserts a new order record.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its ID.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// ListByShopper returns the shopper's orders, newest first.
	ListByShopper(ctx context.Context, shopperID string, limit int) ([]*domain.Order, error)
}

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hemloft/storefront/internal/domain"
	apperrors "github.com/hemloft/storefront/pkg/errors"
)

// CartRepository keeps cart snapshots in process memory. It backs tests and
// serves as the degraded store when Redis is unavailable.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

// NewCartRepository creates an in-memory cart repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{
		carts: make(map[string][]byte),
	}
}

// Get retrieves the shopper's cart.
func (r *CartRepository) Get(_ context.Context, shopperID string) (*domain.Cart, error) {
	r.mu.RLock()
	data, ok := r.carts[shopperID]
	r.mu.RUnlock()

	if !ok {
		return nil, apperrors.NotFound("cart", shopperID)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, apperrors.NotFound("cart", shopperID)
	}

	return &cart, nil
}

// Save stores the cart as a serialized snapshot so callers never share
// mutable state with the repository.
func (r *CartRepository) Save(_ context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	r.mu.Lock()
	r.carts[cart.ShopperID] = data
	r.mu.Unlock()

	return nil
}

// Delete removes the shopper's cart.
func (r *CartRepository) Delete(_ context.Context, shopperID string) error {
	r.mu.Lock()
	delete(r.carts, shopperID)
	r.mu.Unlock()

	return nil
}

package failover

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hemloft/storefront/internal/domain"
	"github.com/hemloft/storefront/internal/repository"
	apperrors "github.com/hemloft/storefront/pkg/errors"
)

// CartRepository wraps a primary cart store with an in-memory fallback. When
// a write to the primary fails, the shopper's session is marked degraded and
// subsequent operations for that shopper use the fallback only, trading
// durability for availability. The cart operation itself still succeeds.
type CartRepository struct {
	primary  repository.CartRepository
	fallback repository.CartRepository
	logger   *slog.Logger

	mu       sync.RWMutex
	degraded map[string]struct{}
}

// NewCartRepository creates a failover repository over primary and fallback.
func NewCartRepository(primary, fallback repository.CartRepository, logger *slog.Logger) *CartRepository {
	return &CartRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		degraded: make(map[string]struct{}),
	}
}

func (r *CartRepository) isDegraded(shopperID string) bool {
	r.mu.RLock()
	_, ok := r.degraded[shopperID]
	r.mu.RUnlock()
	return ok
}

func (r *CartRepository) markDegraded(ctx context.Context, shopperID string, err error) {
	r.mu.Lock()
	r.degraded[shopperID] = struct{}{}
	r.mu.Unlock()

	r.logger.WarnContext(ctx, "cart store degraded to memory for session",
		slog.String("shopper_id", shopperID),
		slog.String("error", err.Error()),
	)
}

// Get reads from the fallback for degraded sessions, otherwise from the
// primary. A primary read error (other than not-found) falls through to the
// fallback so a flaky primary does not lose the in-memory cart.
func (r *CartRepository) Get(ctx context.Context, shopperID string) (*domain.Cart, error) {
	if r.isDegraded(shopperID) {
		return r.fallback.Get(ctx, shopperID)
	}

	cart, err := r.primary.Get(ctx, shopperID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		r.markDegraded(ctx, shopperID, err)
		return r.fallback.Get(ctx, shopperID)
	}
	return cart, err
}

// Save writes to the primary; on failure the session degrades and the write
// lands in the fallback instead.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	if r.isDegraded(cart.ShopperID) {
		return r.fallback.Save(ctx, cart)
	}

	if err := r.primary.Save(ctx, cart); err != nil {
		r.markDegraded(ctx, cart.ShopperID, err)
		return r.fallback.Save(ctx, cart)
	}
	return nil
}

// Delete removes the snapshot from both stores so a later recovery of the
// primary cannot resurrect a cleared cart.
func (r *CartRepository) Delete(ctx context.Context, shopperID string) error {
	_ = r.fallback.Delete(ctx, shopperID)

	if r.isDegraded(shopperID) {
		return nil
	}

	if err := r.primary.Delete(ctx, shopperID); err != nil {
		r.markDegraded(ctx, shopperID, err)
	}
	return nil
}

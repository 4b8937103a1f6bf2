package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hemloft/storefront/internal/domain"
	apperrors "github.com/hemloft/storefront/pkg/errors"
)

const keyPrefix = "cart:"

// CartRepository stores cart snapshots as JSON values in Redis with a TTL.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCartRepository creates a Redis-backed cart repository.
func NewCartRepository(client *redis.Client, ttl time.Duration, logger *slog.Logger) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get retrieves the shopper's cart snapshot. A corrupted snapshot is treated
// the same as a missing one: the caller starts from an empty cart instead of
// failing the request.
func (r *CartRepository) Get(ctx context.Context, shopperID string) (*domain.Cart, error) {
	key := keyPrefix + shopperID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", shopperID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		r.logger.WarnContext(ctx, "discarding corrupted cart snapshot",
			slog.String("shopper_id", shopperID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.NotFound("cart", shopperID)
	}

	return &cart, nil
}

// Save writes the cart snapshot with the configured TTL.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	key := keyPrefix + cart.ShopperID

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}

// Delete removes the shopper's cart snapshot.
func (r *CartRepository) Delete(ctx context.Context, shopperID string) error {
	key := keyPrefix + shopperID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}

	return nil
}

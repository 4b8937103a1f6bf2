package redis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemloft/storefront/internal/domain"
	apperrors "github.com/hemloft/storefront/pkg/errors"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCartRepository(client, 24*time.Hour, logger), mr
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Cart{
		ID:        "cart-001",
		ShopperID: "shopper-001",
		Items: []domain.CartItem{
			{
				ProductID: "sofa-1",
				Title:     "Linen Sofa",
				UnitPrice: 49999,
				Quantity:  2,
				ImageURL:  "https://img.example.com/sofa.jpg",
			},
		},
		Currency:  "USD",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	data, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, mr.Set("cart:"+cart.ShopperID, string(data)))

	got, err := repo.Get(context.Background(), cart.ShopperID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, got.ID)
	assert.Equal(t, cart.ShopperID, got.ShopperID)
	assert.Equal(t, cart.Currency, got.Currency)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "sofa-1", got.Items[0].ProductID)
	assert.Equal(t, int64(49999), got.Items[0].UnitPrice)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestCartRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.Get(context.Background(), "nonexistent-shopper")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Get_CorruptedSnapshot(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, mr.Set("cart:shopper-bad", "{{not-valid-json"))

	// A corrupted snapshot reads as not-found so the shopper starts from an
	// empty cart instead of seeing an error.
	got, err := repo.Get(context.Background(), "shopper-bad")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Save_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))

	assert.True(t, mr.Exists("cart:"+cart.ShopperID))

	raw, err := mr.Get("cart:" + cart.ShopperID)
	require.NoError(t, err)

	var stored domain.Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, cart.ID, stored.ID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "sofa-1", stored.Items[0].ProductID)
}

func TestCartRepository_Save_TTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))

	ttl := mr.TTL("cart:" + cart.ShopperID)
	assert.True(t, ttl > 23*time.Hour, "expected TTL > 23h, got %v", ttl)
	assert.True(t, ttl <= 24*time.Hour, "expected TTL <= 24h, got %v", ttl)
}

func TestCartRepository_SaveThenGetRoundTrip(t *testing.T) {
	repo, _ := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))

	got, err := repo.Get(context.Background(), cart.ShopperID)
	require.NoError(t, err)
	assert.Equal(t, cart.TotalAmount(), got.TotalAmount())
}

func TestCartRepository_Delete(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))
	assert.True(t, mr.Exists("cart:"+cart.ShopperID))

	require.NoError(t, repo.Delete(context.Background(), cart.ShopperID))
	assert.False(t, mr.Exists("cart:"+cart.ShopperID))
}

func TestCartRepository_Delete_NonExistent(t *testing.T) {
	repo, _ := setupTestRedis(t)

	assert.NoError(t, repo.Delete(context.Background(), "nonexistent-shopper"))
}

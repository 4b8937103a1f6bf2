package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hemloft/storefront/internal/domain"
	"github.com/hemloft/storefront/internal/event"
	"github.com/hemloft/storefront/internal/repository"
	apperrors "github.com/hemloft/storefront/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single line item.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct line items in a cart.
	MaxItemsPerCart = 50
)

// ProductGetter supplies catalog entries for items being added to the cart.
type ProductGetter interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

// AddItemInput holds the parameters for adding an item to the cart. Title and
// price come from the catalog, never from the shopper.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// CartSubscriber is notified synchronously after every cart mutation.
type CartSubscriber func(cart *domain.Cart)

// CartService implements the business logic for cart operations. It is the
// single writer of the cart snapshot; checkout reads through it and clears
// through it, never touching the repository directly.
type CartService struct {
	repo     repository.CartRepository
	catalog  ProductGetter
	producer event.Publisher
	logger   *slog.Logger
	currency string

	subMu       sync.RWMutex
	subscribers []CartSubscriber
}

// NewCartService creates a cart service.
func NewCartService(repo repository.CartRepository, catalog ProductGetter, producer event.Publisher, logger *slog.Logger, currency string) *CartService {
	return &CartService{
		repo:     repo,
		catalog:  catalog,
		producer: producer,
		logger:   logger,
		currency: currency,
	}
}

// Subscribe registers a subscriber invoked after every successful mutation.
// Fan-out is synchronous and in registration order.
func (s *CartService) Subscribe(fn CartSubscriber) {
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.subMu.Unlock()
}

func (s *CartService) notify(cart *domain.Cart) {
	s.subMu.RLock()
	subs := s.subscribers
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(cart)
	}
}

// GetCart restores the shopper's cart from its persisted snapshot. A missing
// or unreadable snapshot yields an empty cart, never an error.
func (s *CartService) GetCart(ctx context.Context, shopperID string) (*domain.Cart, error) {
	if shopperID == "" {
		return nil, apperrors.InvalidInput("shopper id is required")
	}

	cart, err := s.repo.Get(ctx, shopperID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(shopperID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return cart, nil
}

// AddItem adds a product to the shopper's cart, merging quantities when the
// product is already present. Title and unit price are taken from the catalog
// at add time.
func (s *CartService) AddItem(ctx context.Context, shopperID string, input AddItemInput) (*domain.Cart, error) {
	if shopperID == "" {
		return nil, apperrors.InvalidInput("shopper id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.Quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	product, err := s.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	cart, err := s.getOrCreateCart(ctx, shopperID)
	if err != nil {
		return nil, err
	}

	if idx := cart.FindItemIndex(input.ProductID); idx >= 0 {
		newQty := cart.Items[idx].Quantity + input.Quantity
		if newQty > MaxQuantityPerItem {
			return nil, apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
		}
		cart.Items[idx].Quantity = newQty
		// Refresh catalog-owned fields in case they changed.
		cart.Items[idx].Title = product.Title
		cart.Items[idx].UnitPrice = product.UnitPrice
		cart.Items[idx].ImageURL = product.ImageURL
	} else {
		if len(cart.Items) >= MaxItemsPerCart {
			return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: product.ID,
			Title:     product.Title,
			UnitPrice: product.UnitPrice,
			Quantity:  input.Quantity,
			ImageURL:  product.ImageURL,
		})
	}

	if err := s.saveAndNotify(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("shopper_id", shopperID),
		slog.String("product_id", input.ProductID),
		slog.Int("quantity", input.Quantity),
	)

	return cart, nil
}

// SetQuantity sets a line item's quantity directly. A quantity of zero or
// less removes the item. Setting the quantity of a product that is not in
// the cart is a no-op, not an error.
func (s *CartService) SetQuantity(ctx context.Context, shopperID, productID string, quantity int) (*domain.Cart, error) {
	if shopperID == "" {
		return nil, apperrors.InvalidInput("shopper id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	cart, err := s.GetCart(ctx, shopperID)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItemIndex(productID)
	if idx < 0 {
		return cart, nil
	}

	if quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = quantity
	}

	if err := s.saveAndNotify(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("shopper_id", shopperID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// RemoveItem deletes the line item for the given product. Removing a product
// that is not in the cart is a no-op, so the operation is idempotent.
func (s *CartService) RemoveItem(ctx context.Context, shopperID, productID string) (*domain.Cart, error) {
	if shopperID == "" {
		return nil, apperrors.InvalidInput("shopper id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	cart, err := s.GetCart(ctx, shopperID)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItemIndex(productID)
	if idx < 0 {
		return cart, nil
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	if err := s.saveAndNotify(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("shopper_id", shopperID),
		slog.String("product_id", productID),
	)

	return cart, nil
}

// Clear empties the cart, persisting an empty snapshot.
func (s *CartService) Clear(ctx context.Context, shopperID string) error {
	if shopperID == "" {
		return apperrors.InvalidInput("shopper id is required")
	}

	cart, err := s.GetCart(ctx, shopperID)
	if err != nil {
		return err
	}

	cart.Items = []domain.CartItem{}

	cart.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.notify(cart)

	if err := s.producer.PublishCartCleared(ctx, shopperID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("shopper_id", shopperID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("shopper_id", shopperID),
	)

	return nil
}

// GetTotal returns the cart's derived total in minor currency units.
func (s *CartService) GetTotal(ctx context.Context, shopperID string) (int64, error) {
	cart, err := s.GetCart(ctx, shopperID)
	if err != nil {
		return 0, err
	}
	return cart.TotalAmount(), nil
}

func (s *CartService) saveAndNotify(ctx context.Context, cart *domain.Cart) error {
	cart.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}

	s.notify(cart)

	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("shopper_id", cart.ShopperID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

func (s *CartService) getOrCreateCart(ctx context.Context, shopperID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, shopperID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(shopperID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) newEmptyCart(shopperID string) *domain.Cart {
	return domain.NewCart(uuid.New().String(), shopperID, s.currency)
}

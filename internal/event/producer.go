package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hemloft/storefront/internal/domain"
	pkgkafka "github.com/hemloft/storefront/pkg/kafka"
	"github.com/hemloft/storefront/pkg/logger"
)

// Kafka topics for storefront domain events.
const (
	TopicCartUpdated       = "storefront.cart.updated"
	TopicCartCleared       = "storefront.cart.cleared"
	TopicCheckoutCompleted = "storefront.checkout.completed"
	TopicCheckoutFailed    = "storefront.checkout.failed"
)

// Aggregate types.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeCheckout = "checkout"
)

// Source identifier for events originating from this service.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	ShopperID   string            `json:"shopper_id"`
	Items       []domain.CartItem `json:"items"`
	ItemCount   int               `json:"item_count"`
	TotalAmount int64             `json:"total_amount"`
	Currency    string            `json:"currency"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	ShopperID string `json:"shopper_id"`
}

// CheckoutCompletedData is the payload for a checkout.completed event.
type CheckoutCompletedData struct {
	ShopperID   string `json:"shopper_id"`
	OrderID     string `json:"order_id"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
}

// CheckoutFailedData is the payload for a checkout.failed event.
type CheckoutFailedData struct {
	ShopperID string `json:"shopper_id"`
	Reason    string `json:"reason"`
}

// Publisher is the event publishing surface the services depend on.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart) error
	PublishCartCleared(ctx context.Context, shopperID string) error
	PublishCheckoutCompleted(ctx context.Context, shopperID, orderID string, totalAmount int64, currency string) error
	PublishCheckoutFailed(ctx context.Context, shopperID, reason string) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		event.WithCorrelationID(correlationID)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	return nil
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	data := CartUpdatedData{
		ShopperID:   cart.ShopperID,
		Items:       cart.Items,
		ItemCount:   cart.ItemCount(),
		TotalAmount: cart.TotalAmount(),
		Currency:    cart.Currency,
	}
	return p.publish(ctx, TopicCartUpdated, cart.ShopperID, AggregateTypeCart, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, shopperID string) error {
	return p.publish(ctx, TopicCartCleared, shopperID, AggregateTypeCart, CartClearedData{ShopperID: shopperID})
}

// PublishCheckoutCompleted publishes a checkout.completed event.
func (p *Producer) PublishCheckoutCompleted(ctx context.Context, shopperID, orderID string, totalAmount int64, currency string) error {
	data := CheckoutCompletedData{
		ShopperID:   shopperID,
		OrderID:     orderID,
		TotalAmount: totalAmount,
		Currency:    currency,
	}
	return p.publish(ctx, TopicCheckoutCompleted, shopperID, AggregateTypeCheckout, data)
}

// PublishCheckoutFailed publishes a checkout.failed event.
func (p *Producer) PublishCheckoutFailed(ctx context.Context, shopperID, reason string) error {
	return p.publish(ctx, TopicCheckoutFailed, shopperID, AggregateTypeCheckout, CheckoutFailedData{
		ShopperID: shopperID,
		Reason:    reason,
	})
}

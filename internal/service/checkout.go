package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hemloft/storefront/internal/domain"
	"github.com/hemloft/storefront/internal/event"
	"github.com/hemloft/storefront/internal/payment"
	"github.com/hemloft/storefront/internal/repository"
	apperrors "github.com/hemloft/storefront/pkg/errors"
	"github.com/hemloft/storefront/pkg/validator"
)

// SubmitCheckoutInput is the shopper-supplied checkout form. The address is
// structured; there is no free-text address parsing.
type SubmitCheckoutInput struct {
	ContactEmail string `json:"contact_email" validate:"required,email"`
	FullName     string `json:"full_name" validate:"required"`
	Line1        string `json:"line1" validate:"required"`
	City         string `json:"city" validate:"required"`
	PostalCode   string `json:"postal_code" validate:"required"`
	Country      string `json:"country" validate:"required,len=2"`
	PaymentToken string `json:"payment_token"`
	ReturnURL    string `json:"return_url"`
}

// CheckoutService turns a submitted checkout into either a completed
// purchase (cart cleared, shopper redirected) or a reported, recoverable
// error (cart untouched). One submission per shopper may be in flight at a
// time; a second submit while the first is running is rejected.
type CheckoutService struct {
	cart      *CartService
	orders    repository.OrderRepository
	confirmer payment.Confirmer
	producer  event.Publisher
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewCheckoutService creates a checkout service.
func NewCheckoutService(cart *CartService, orders repository.OrderRepository, confirmer payment.Confirmer, producer event.Publisher, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		cart:      cart,
		orders:    orders,
		confirmer: confirmer,
		producer:  producer,
		logger:    logger,
		inFlight:  make(map[string]struct{}),
	}
}

// beginSubmission marks the shopper's submission in flight, rejecting a
// concurrent one. The guard lives in the service so the invariant holds even
// when the caller is not a disabled submit button.
func (s *CheckoutService) beginSubmission(shopperID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[shopperID]; busy {
		return apperrors.Conflict("a checkout is already in progress")
	}
	s.inFlight[shopperID] = struct{}{}
	return nil
}

func (s *CheckoutService) endSubmission(shopperID string) {
	s.mu.Lock()
	delete(s.inFlight, shopperID)
	s.mu.Unlock()
}

// Submit runs one checkout attempt. On success the cart is cleared and the
// shopper is redirected to the confirmation destination; on failure the cart
// is left intact and the error carries a shopper-readable message.
func (s *CheckoutService) Submit(ctx context.Context, shopperID string, input SubmitCheckoutInput) (*domain.CheckoutResult, error) {
	if shopperID == "" {
		return nil, apperrors.InvalidInput("shopper id is required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, err
	}
	if input.PaymentToken == "" {
		return nil, apperrors.PaymentNotReady("no active payment session")
	}

	if err := s.beginSubmission(shopperID); err != nil {
		return nil, err
	}
	defer s.endSubmission(shopperID)

	cart, err := s.cart.GetCart(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	result, err := s.confirmer.Confirm(ctx, &payment.ConfirmInput{
		PaymentToken:    input.PaymentToken,
		Amount:          cart.TotalAmount(),
		Currency:        cart.Currency,
		ReceiptEmail:    input.ContactEmail,
		ShippingName:    input.FullName,
		ShippingLine1:   input.Line1,
		ShippingCity:    input.City,
		ShippingPostal:  input.PostalCode,
		ShippingCountry: input.Country,
		ReturnURL:       input.ReturnURL,
	})
	if err != nil {
		return nil, s.fail(ctx, shopperID, fmt.Sprintf("payment confirmation failed: %v", err), err)
	}
	if result.Status != "succeeded" {
		reason := result.FailureReason
		if reason == "" {
			reason = "payment was declined"
		}
		return nil, s.fail(ctx, shopperID, reason, apperrors.PaymentFailed(reason))
	}

	order := s.buildOrder(shopperID, cart, input, result.ProviderPaymentID)

	// The payment has settled; an order-record write failure must not fail
	// the shopper's checkout. It is logged for reconciliation instead.
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to record order after successful payment",
			slog.String("shopper_id", shopperID),
			slog.String("order_id", order.ID),
			slog.String("payment_ref", result.ProviderPaymentID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.cart.Clear(ctx, shopperID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("shopper_id", shopperID),
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishCheckoutCompleted(ctx, shopperID, order.ID, order.TotalAmount, order.Currency); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.completed event",
			slog.String("shopper_id", shopperID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("shopper_id", shopperID),
		slog.String("order_id", order.ID),
		slog.Int64("total_amount", order.TotalAmount),
	)

	redirect := result.RedirectURL
	if redirect == "" {
		redirect = input.ReturnURL
	}

	return &domain.CheckoutResult{
		OrderID:     order.ID,
		Status:      domain.SubmissionStatusSucceeded,
		RedirectURL: redirect,
	}, nil
}

// fail publishes the failure event and returns the error that reaches the
// shopper. The cart is never touched on this path.
func (s *CheckoutService) fail(ctx context.Context, shopperID, reason string, err error) error {
	if pubErr := s.producer.PublishCheckoutFailed(ctx, shopperID, reason); pubErr != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.failed event",
			slog.String("shopper_id", shopperID),
			slog.String("error", pubErr.Error()),
		)
	}

	s.logger.WarnContext(ctx, "checkout failed",
		slog.String("shopper_id", shopperID),
		slog.String("reason", reason),
	)

	return err
}

func (s *CheckoutService) buildOrder(shopperID string, cart *domain.Cart, input SubmitCheckoutInput, paymentRef string) *domain.Order {
	now := time.Now().UTC()
	items := make([]domain.CartItem, len(cart.Items))
	copy(items, cart.Items)

	return &domain.Order{
		ID:           uuid.New().String(),
		ShopperID:    shopperID,
		ContactEmail: input.ContactEmail,
		Status:       domain.OrderStatusConfirmed,
		Items:        items,
		TotalAmount:  cart.TotalAmount(),
		Currency:     cart.Currency,
		DeliveryAddress: domain.Address{
			FullName:   input.FullName,
			Line1:      input.Line1,
			City:       input.City,
			PostalCode: input.PostalCode,
			Country:    input.Country,
		},
		PaymentRef: paymentRef,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

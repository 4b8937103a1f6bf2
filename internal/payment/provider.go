package payment

import (
	"context"
)

// ConfirmInput is the payload sent to the payment confirmation service. The
// token references a payment session established by the collection UI; this
// service never sees card details.
type ConfirmInput struct {
	PaymentToken    string
	Amount          int64
	Currency        string
	ReceiptEmail    string
	ShippingName    string
	ShippingLine1   string
	ShippingCity    string
	ShippingPostal  string
	ShippingCountry string
	ReturnURL       string
}

// ConfirmResult is the outcome of a confirmation call.
type ConfirmResult struct {
	ProviderPaymentID string
	Status            string // "succeeded" or "failed"
	RedirectURL       string
	FailureReason     string
}

// Confirmer is the payment confirmation surface the checkout flow depends on.
type Confirmer interface {
	// Name returns the provider name (e.g., "mock", "stripe").
	Name() string

	// Confirm finalizes the payment session. A declined payment returns a
	// result with status "failed" and a shopper-readable reason; transport
	// and provider outages return an error.
	Confirm(ctx context.Context, input *ConfirmInput) (*ConfirmResult, error)
}

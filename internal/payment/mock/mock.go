package mock

import (
	"context"

	"github.com/google/uuid"

	"github.com/hemloft/storefront/internal/payment"
)

// Confirmer is a mock payment confirmer for development and testing. It
// succeeds unless configured to fail.
type Confirmer struct {
	FailWith string
	Err      error
}

// NewConfirmer creates a mock confirmer that always succeeds.
func NewConfirmer() *Confirmer {
	return &Confirmer{}
}

// Name returns the provider name.
func (c *Confirmer) Name() string {
	return "mock"
}

// Confirm simulates a payment confirmation.
func (c *Confirmer) Confirm(_ context.Context, input *payment.ConfirmInput) (*payment.ConfirmResult, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if c.FailWith != "" {
		return &payment.ConfirmResult{
			Status:        "failed",
			FailureReason: c.FailWith,
		}, nil
	}
	return &payment.ConfirmResult{
		ProviderPaymentID: "mock_pay_" + uuid.New().String(),
		Status:            "succeeded",
		RedirectURL:       input.ReturnURL,
	}, nil
}

package domain

import "time"

// Checkout submission status constants.
const (
	SubmissionStatusPending    = "pending"
	SubmissionStatusSubmitting = "submitting"
	SubmissionStatusSucceeded  = "succeeded"
	SubmissionStatusFailed     = "failed"
)

// Address is a structured delivery address. Free-text address parsing is
// deliberately not supported; callers must supply the fields separately.
type Address struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// CheckoutRequest is the shopper-supplied input for a checkout submission.
// It is consumed exactly once and never persisted.
type CheckoutRequest struct {
	ShopperID       string  `json:"shopper_id"`
	ContactEmail    string  `json:"contact_email"`
	DeliveryAddress Address `json:"delivery_address"`
	PaymentToken    string  `json:"payment_token"`
	ReturnURL       string  `json:"return_url"`
}

// CheckoutResult is the terminal outcome of one submission.
type CheckoutResult struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// Submission tracks one checkout attempt from submit to a terminal state.
type Submission struct {
	ID            string    `json:"id"`
	ShopperID     string    `json:"shopper_id"`
	Status        string    `json:"status"`
	TotalAmount   int64     `json:"total_amount"`
	Currency      string    `json:"currency"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsTerminal returns true once the submission reached a final state.
func (s *Submission) IsTerminal() bool {
	return s.Status == SubmissionStatusSucceeded || s.Status == SubmissionStatusFailed
}

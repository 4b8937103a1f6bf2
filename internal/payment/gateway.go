package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/hemloft/storefront/pkg/errors"
	"github.com/hemloft/storefront/pkg/httpclient"
)

// Gateway confirms payments against the external provider's HTTP API through
// a circuit breaker.
type Gateway struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
	apiKey  string
}

// NewGateway creates a payment gateway.
func NewGateway(client *httpclient.CircuitBreakerClient, baseURL, apiKey string) *Gateway {
	return &Gateway{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Name returns the provider name.
func (g *Gateway) Name() string {
	return "http"
}

type confirmRequest struct {
	PaymentToken string          `json:"payment_token"`
	Amount       int64           `json:"amount"`
	Currency     string          `json:"currency"`
	ReceiptEmail string          `json:"receipt_email"`
	Shipping     shippingPayload `json:"shipping"`
	ReturnURL    string          `json:"return_url"`
}

type shippingPayload struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type confirmResponse struct {
	PaymentID     string `json:"payment_id"`
	Status        string `json:"status"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Confirm posts the confirmation payload to the provider. A 422 response is
// translated into a failed result rather than an error so the checkout flow
// can surface the decline reason.
func (g *Gateway) Confirm(ctx context.Context, input *ConfirmInput) (*ConfirmResult, error) {
	payload := confirmRequest{
		PaymentToken: input.PaymentToken,
		Amount:       input.Amount,
		Currency:     input.Currency,
		ReceiptEmail: input.ReceiptEmail,
		Shipping: shippingPayload{
			Name:       input.ShippingName,
			Line1:      input.ShippingLine1,
			City:       input.ShippingCity,
			PostalCode: input.ShippingPostal,
			Country:    input.ShippingCountry,
		},
		ReturnURL: input.ReturnURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal confirm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payments/confirm", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create confirm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("payment service unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var result confirmResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("decode declined response: %w", err)
		}
		return &ConfirmResult{
			ProviderPaymentID: result.PaymentID,
			Status:            "failed",
			FailureReason:     result.FailureReason,
		}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "payment")
	}

	var result confirmResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode confirm response: %w", err)
	}

	return &ConfirmResult{
		ProviderPaymentID: result.PaymentID,
		Status:            result.Status,
		RedirectURL:       result.RedirectURL,
		FailureReason:     result.FailureReason,
	}, nil
}

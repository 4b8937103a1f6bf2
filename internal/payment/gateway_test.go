package payment

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hemloft/storefront/pkg/errors"
	"github.com/hemloft/storefront/pkg/httpclient"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc, name string) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := httpclient.NewCircuitBreakerClient(httpclient.New(cfg), httpclient.DefaultCircuitBreakerConfig(name), logger)

	return NewGateway(client, srv.URL, "sk_test_123")
}

func sampleInput() *ConfirmInput {
	return &ConfirmInput{
		PaymentToken:    "tok_abc",
		Amount:          99998,
		Currency:        "USD",
		ReceiptEmail:    "jane@example.com",
		ShippingName:    "Jane Doe",
		ShippingLine1:   "123 Main St",
		ShippingCity:    "Portland",
		ShippingPostal:  "97201",
		ShippingCountry: "US",
		ReturnURL:       "https://shop.example.com/confirmation",
	}
}

func TestGatewayConfirmSucceeded(t *testing.T) {
	var gotReq confirmRequest
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/confirm", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(confirmResponse{
			PaymentID:   "pi_123",
			Status:      "succeeded",
			RedirectURL: "https://shop.example.com/confirmation",
		})
	}, "confirm-succeeded")

	result, err := gw.Confirm(context.Background(), sampleInput())
	require.NoError(t, err)

	assert.Equal(t, "succeeded", result.Status)
	assert.Equal(t, "pi_123", result.ProviderPaymentID)
	assert.Equal(t, "https://shop.example.com/confirmation", result.RedirectURL)

	assert.Equal(t, "tok_abc", gotReq.PaymentToken)
	assert.Equal(t, int64(99998), gotReq.Amount)
	assert.Equal(t, "Portland", gotReq.Shipping.City)
	assert.Equal(t, "97201", gotReq.Shipping.PostalCode)
}

func TestGatewayConfirmDeclined(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(confirmResponse{
			Status:        "failed",
			FailureReason: "card declined",
		})
	}, "confirm-declined")

	result, err := gw.Confirm(context.Background(), sampleInput())
	require.NoError(t, err, "a decline is a result, not an error")

	assert.Equal(t, "failed", result.Status)
	assert.Equal(t, "card declined", result.FailureReason)
}

func TestGatewayConfirmBadRequest(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"INVALID_INPUT","message":"missing payment token"}}`))
	}, "confirm-bad-request")

	result, err := gw.Confirm(context.Background(), sampleInput())
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGatewayConfirmProviderDown(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, "confirm-provider-down")

	result, err := gw.Confirm(context.Background(), sampleInput())
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}

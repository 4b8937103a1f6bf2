package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NotFound("cart", "shopper-1")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "cart with id shopper-1 not found")
}

func TestAppError_Unwrap(t *testing.T) {
	assert.ErrorIs(t, NotFound("order", "o-1"), ErrNotFound)
	assert.ErrorIs(t, InvalidInput("bad"), ErrInvalidInput)
	assert.ErrorIs(t, Conflict("busy"), ErrConflict)
	assert.ErrorIs(t, PaymentFailed("declined"), ErrPaymentFailed)
	assert.ErrorIs(t, PaymentNotReady("no session"), ErrPaymentNotReady)
	assert.ErrorIs(t, ServiceUnavailable("down"), ErrServiceUnavail)
}

func TestHTTPStatus_AppError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("cart", "x")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidInput("bad")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("busy")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(PaymentNotReady("no session")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(PaymentFailed("declined")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ServiceUnavailable("down")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Internal(errors.New("boom"))))
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("load cart: %w", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))

	wrapped = fmt.Errorf("submit: %w", ErrPaymentFailed)
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(wrapped))
}

func TestHTTPStatus_Unknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("mystery")))
}

package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(t *testing.T, name string) (*CircuitBreakerClient, *httptest.Server, *int) {
	t.Helper()

	failing := true
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.MaxRetries = 0

	cbCfg := DefaultCircuitBreakerConfig(name)
	cbCfg.MinRequests = 2
	cbCfg.Timeout = 50 * time.Millisecond

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCircuitBreakerClient(New(cfg), cbCfg, logger), srv, &calls
}

func TestCircuitBreakerTripsOnFailures(t *testing.T) {
	client, srv, calls := newTestBreaker(t, "trips-on-failures")

	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), srv.URL)
		require.Error(t, err)
	}

	assert.Equal(t, gobreaker.StateOpen, client.State())

	before := *calls
	_, err := client.Get(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, *calls, "open breaker must not hit the backend")
}

func TestCircuitBreakerFallback(t *testing.T) {
	client, srv, _ := newTestBreaker(t, "fallback")

	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), srv.URL)
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, client.State())

	withFallback := client.WithFallback(func(ctx context.Context, err error) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"data":null}`)),
		}, nil
	})

	resp, err := withFallback.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

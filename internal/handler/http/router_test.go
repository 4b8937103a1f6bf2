package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemloft/storefront/internal/auth"
	"github.com/hemloft/storefront/internal/catalog"
	"github.com/hemloft/storefront/internal/domain"
	"github.com/hemloft/storefront/internal/payment/mock"
	"github.com/hemloft/storefront/internal/repository/memory"
	"github.com/hemloft/storefront/internal/service"
	apperrors "github.com/hemloft/storefront/pkg/errors"
	"github.com/hemloft/storefront/pkg/health"
	"github.com/hemloft/storefront/pkg/httpclient"
	pkgmw "github.com/hemloft/storefront/pkg/middleware"
)

const testJWTSecret = "test-secret"

type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[string]*domain.Order)}
}

func (f *fakeOrders) Create(_ context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	return order, nil
}

func (f *fakeOrders) ListByShopper(_ context.Context, shopperID string, limit int) ([]*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	var out []*domain.Order
	for _, order := range f.orders {
		if order.ShopperID == shopperID {
			out = append(out, order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishCartUpdated(context.Context, *domain.Cart) error { return nil }
func (noopPublisher) PublishCartCleared(context.Context, string) error       { return nil }
func (noopPublisher) PublishCheckoutCompleted(context.Context, string, string, int64, string) error {
	return nil
}
func (noopPublisher) PublishCheckoutFailed(context.Context, string, string) error { return nil }

type stubSender struct {
	mu   sync.Mutex
	sent []*domain.ContactMessage
	err  error
}

func (s *stubSender) Send(_ context.Context, msg *domain.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fixture struct {
	router    http.Handler
	orders    *fakeOrders
	confirmer *mock.Confirmer
	sender    *stubSender
}

func catalogBackend(t *testing.T) *httptest.Server {
	t.Helper()

	products := map[string]map[string]any{
		"sofa-1": {
			"id": "sofa-1", "title": "Hemlock Sofa", "unit_price": int64(49999),
			"currency": "USD", "category": "sofas", "in_stock": true,
		},
		"chair-1": {
			"id": "chair-1", "title": "Alder Chair", "unit_price": int64(8900),
			"currency": "USD", "category": "chairs", "in_stock": true,
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/products" {
			var list []map[string]any
			category := r.URL.Query().Get("category")
			for _, p := range products {
				if category == "" || p["category"] == category {
					list = append(list, p)
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"products": list})
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/products/")
		p, ok := products[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(p)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := catalogBackend(t)

	breakerCfg := httpclient.DefaultCircuitBreakerConfig(fmt.Sprintf("catalog-%s", t.Name()))
	catalogClient := catalog.NewClient(
		httpclient.NewCircuitBreakerClient(httpclient.New(httpclient.DefaultConfig()), breakerCfg, logger),
		backend.URL, "test-key",
	)

	cartSvc := service.NewCartService(memory.NewCartRepository(), catalogClient, noopPublisher{}, logger, "USD")

	orders := newFakeOrders()
	confirmer := mock.NewConfirmer()
	checkoutSvc := service.NewCheckoutService(cartSvc, orders, confirmer, noopPublisher{}, logger)

	sender := &stubSender{}
	contactSvc := service.NewContactService(sender, logger)

	router := NewRouter(RouterConfig{
		Logger:         logger,
		Health:         health.NewHandler(),
		TokenValidator: auth.NewVerifier(testJWTSecret).TokenValidator(),
		CORS:           pkgmw.DefaultCORSConfig(),
		ServiceName:    "storefront",
		Cart:           cartSvc,
		Checkout:       checkoutSvc,
		Contact:        contactSvc,
		Catalog:        catalogClient,
		Orders:         orders,
	})

	return &fixture{router: router, orders: orders, confirmer: confirmer, sender: sender}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path, shopperID string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if shopperID != "" {
		req.Header.Set("X-Shopper-ID", shopperID)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func validCheckoutBody() map[string]any {
	return map[string]any{
		"contact_email": "shopper@example.com",
		"full_name":     "Avery Shopper",
		"line1":         "12 Elm Street",
		"city":          "Portland",
		"postal_code":   "97201",
		"country":       "US",
		"payment_token": "tok_123",
		"return_url":    "https://shop.example.com/confirmation",
	}
}

func TestRouter_CartLifecycle(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/cart/items", "shopper-1", map[string]any{
		"product_id": "sofa-1", "quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var cart domain.Cart
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Hemlock Sofa", cart.Items[0].Title)
	assert.Equal(t, int64(49999), cart.Items[0].UnitPrice)
	assert.Equal(t, int64(99998), cart.TotalAmount())

	rec, env = f.do(t, http.MethodGet, "/api/v1/cart", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Equal(t, 2, cart.ItemCount())

	rec, env = f.do(t, http.MethodGet, "/api/v1/cart/total", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var total map[string]int64
	require.NoError(t, json.Unmarshal(env.Data, &total))
	assert.Equal(t, int64(99998), total["total_amount"])

	rec, env = f.do(t, http.MethodPut, "/api/v1/cart/items/sofa-1", "shopper-1", map[string]any{"quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Equal(t, 1, cart.ItemCount())

	rec, env = f.do(t, http.MethodDelete, "/api/v1/cart/items/sofa-1", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.True(t, cart.IsEmpty())

	rec, _ = f.do(t, http.MethodDelete, "/api/v1/cart", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CartRequiresShopperID(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	assert.Contains(t, env.Error.Message, "X-Shopper-ID")
}

func TestRouter_AddItemValidation(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/cart/items", "shopper-1", map[string]any{
		"product_id": "", "quantity": 0,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "ProductID")
}

func TestRouter_AddItemUnknownProduct(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/cart/items", "shopper-1", map[string]any{
		"product_id": "ghost-9", "quantity": 1,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestRouter_CheckoutSuccess(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/api/v1/cart/items", "shopper-1", map[string]any{
		"product_id": "sofa-1", "quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := f.do(t, http.MethodPost, "/api/v1/checkout", "shopper-1", validCheckoutBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.CheckoutResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, domain.SubmissionStatusSucceeded, result.Status)
	require.NotEmpty(t, result.OrderID)

	order, err := f.orders.GetByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, int64(99998), order.TotalAmount)

	// The cart is cleared once payment settles.
	rec, env = f.do(t, http.MethodGet, "/api/v1/cart", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart domain.Cart
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.True(t, cart.IsEmpty())
}

func TestRouter_CheckoutDeclined(t *testing.T) {
	f := newFixture(t)
	f.confirmer.FailWith = "card_declined"

	rec, _ := f.do(t, http.MethodPost, "/api/v1/cart/items", "shopper-1", map[string]any{
		"product_id": "chair-1", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := f.do(t, http.MethodPost, "/api/v1/checkout", "shopper-1", validCheckoutBody())
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "PAYMENT_FAILED", env.Error.Code)

	// A declined payment leaves the cart untouched.
	rec, env = f.do(t, http.MethodGet, "/api/v1/cart", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart domain.Cart
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Equal(t, 1, cart.ItemCount())
}

func TestRouter_CheckoutWithoutPaymentToken(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/api/v1/cart/items", "shopper-1", map[string]any{
		"product_id": "chair-1", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := validCheckoutBody()
	body["payment_token"] = ""
	rec, env := f.do(t, http.MethodPost, "/api/v1/checkout", "shopper-1", body)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "PAYMENT_NOT_READY", env.Error.Code)
}

func TestRouter_CheckoutAddressValidation(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/api/v1/cart/items", "shopper-1", map[string]any{
		"product_id": "chair-1", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := validCheckoutBody()
	body["country"] = "USA"
	rec, env := f.do(t, http.MethodPost, "/api/v1/checkout", "shopper-1", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "Country")
}

func TestRouter_Products(t *testing.T) {
	f := newFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var products []*domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &products))
	assert.Len(t, products, 2)

	rec, env = f.do(t, http.MethodGet, "/api/v1/products?category=chairs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "chair-1", products[0].ID)

	rec, env = f.do(t, http.MethodGet, "/api/v1/products/sofa-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var product domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, "Hemlock Sofa", product.Title)

	rec, env = f.do(t, http.MethodGet, "/api/v1/products/ghost-9", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestRouter_Contact(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/api/v1/contact", "", map[string]any{
		"name": "Avery", "email": "avery@example.com", "message": "Is the sofa in stock?",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "avery@example.com", f.sender.sent[0].Email)

	rec, env := f.do(t, http.MethodPost, "/api/v1/contact", "", map[string]any{
		"name": "Avery", "email": "not-an-email", "message": "hi",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestRouter_Orders(t *testing.T) {
	f := newFixture(t)

	mine := &domain.Order{
		ID: "order-1", ShopperID: "shopper-1", Status: domain.OrderStatusConfirmed,
		TotalAmount: 8900, Currency: "USD", CreatedAt: time.Now(),
	}
	theirs := &domain.Order{
		ID: "order-2", ShopperID: "shopper-2", Status: domain.OrderStatusConfirmed,
		TotalAmount: 49999, Currency: "USD", CreatedAt: time.Now(),
	}
	require.NoError(t, f.orders.Create(context.Background(), mine))
	require.NoError(t, f.orders.Create(context.Background(), theirs))

	rec, env := f.do(t, http.MethodGet, "/api/v1/orders", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []*domain.Order
	require.NoError(t, json.Unmarshal(env.Data, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "order-1", orders[0].ID)

	rec, env = f.do(t, http.MethodGet, "/api/v1/orders/order-1", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var order domain.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, int64(8900), order.TotalAmount)

	// Another shopper's order reads as not found, not forbidden.
	rec, env = f.do(t, http.MethodGet, "/api/v1/orders/order-2", "shopper-1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestRouter_AuthenticatedShopper(t *testing.T) {
	f := newFixture(t)

	claims := auth.Claims{
		ShopperID: "shopper-jwt",
		Email:     "avery@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":"chair-1","quantity":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The cart landed under the token's shopper ID.
	rec2, env := f.do(t, http.MethodGet, "/api/v1/cart", "shopper-jwt", nil)
	require.Equal(t, http.StatusOK, rec2.Code)
	var cart domain.Cart
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Equal(t, 1, cart.ItemCount())
}

func TestRouter_RejectsInvalidToken(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", http.NoBody)
	req.Header.Set("Authorization", "Bearer not-a-token")
	req.Header.Set("X-Shopper-ID", "shopper-1")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_UnsupportedMediaType(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("product_id=sofa-1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Shopper-ID", "shopper-1")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
}

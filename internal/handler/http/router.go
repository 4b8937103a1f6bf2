package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hemloft/storefront/internal/catalog"
	"github.com/hemloft/storefront/internal/repository"
	"github.com/hemloft/storefront/internal/service"
	"github.com/hemloft/storefront/pkg/health"
	pkgmw "github.com/hemloft/storefront/pkg/middleware"
)

// RouterConfig carries the handlers and cross-cutting pieces the router wires together.
type RouterConfig struct {
	Logger         *slog.Logger
	Health         *health.Handler
	TokenValidator pkgmw.TokenValidator
	CORS           pkgmw.CORSConfig
	ServiceName    string

	Cart     *service.CartService
	Checkout *service.CheckoutService
	Contact  *service.ContactService
	Catalog  *catalog.Client
	Orders   repository.OrderRepository
}

// NewRouter assembles the storefront HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(pkgmw.Recovery(cfg.Logger))
	r.Use(chimw.RealIP)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(pkgmw.CORS(cfg.CORS))
	r.Use(pkgmw.Tracing(cfg.ServiceName))
	r.Use(pkgmw.RequestLogging(cfg.Logger))
	r.Use(pkgmw.PrometheusMetrics(cfg.ServiceName))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(cfg.Cart)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout)
	productHandler := NewProductHandler(cfg.Catalog)
	contactHandler := NewContactHandler(cfg.Contact)
	orderHandler := NewOrderHandler(cfg.Orders)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(pkgmw.OptionalAuth(cfg.TokenValidator))

		r.Get("/products", productHandler.List)
		r.Get("/products/{productID}", productHandler.Get)

		r.Post("/contact", contactHandler.Send)

		// Cart, checkout and order routes need a resolved shopper identity.
		r.Group(func(r chi.Router) {
			r.Use(ShopperID)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.Clear)
				r.Get("/total", cartHandler.GetTotal)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{productID}", cartHandler.SetQuantity)
				r.Delete("/items/{productID}", cartHandler.RemoveItem)
			})

			r.Post("/checkout", checkoutHandler.Submit)

			r.Get("/orders", orderHandler.List)
			r.Get("/orders/{orderID}", orderHandler.Get)
		})
	})

	return r
}

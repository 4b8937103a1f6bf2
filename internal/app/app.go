package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hemloft/storefront/internal/auth"
	"github.com/hemloft/storefront/internal/catalog"
	"github.com/hemloft/storefront/internal/config"
	"github.com/hemloft/storefront/internal/event"
	handler "github.com/hemloft/storefront/internal/handler/http"
	"github.com/hemloft/storefront/internal/payment"
	paymentmock "github.com/hemloft/storefront/internal/payment/mock"
	"github.com/hemloft/storefront/internal/relay"
	"github.com/hemloft/storefront/internal/repository/failover"
	"github.com/hemloft/storefront/internal/repository/memory"
	"github.com/hemloft/storefront/internal/repository/postgres"
	redisrepo "github.com/hemloft/storefront/internal/repository/redis"
	"github.com/hemloft/storefront/internal/service"
	"github.com/hemloft/storefront/pkg/database"
	"github.com/hemloft/storefront/pkg/health"
	"github.com/hemloft/storefront/pkg/httpclient"
	pkgkafka "github.com/hemloft/storefront/pkg/kafka"
	"github.com/hemloft/storefront/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	pool       *pgxpool.Pool
	producer   *pkgkafka.Producer
	httpServer *http.Server

	shutdownTracing func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownTracing, err := tracing.InitTracer(ctx, cfg.Tracing(serviceName))
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Redis backs the primary cart store.
	rdb, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// PostgreSQL holds order records.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, postgres.Migrations, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// Kafka producer for storefront domain events.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	eventProducer := event.NewProducer(producer, logger)

	// The cart store falls back to an in-process store when Redis misbehaves
	// mid-session; shoppers keep their carts at the cost of durability.
	cartRepo := failover.NewCartRepository(
		redisrepo.NewCartRepository(rdb, cfg.CartTTL(), logger),
		memory.NewCartRepository(),
		logger,
	)

	orderRepo := postgres.NewOrderRepository(pool)

	// Outbound HTTP clients. Payment and catalog calls go through circuit
	// breakers so a struggling downstream cannot stall every request.
	baseClient := httpclient.New(httpclient.DefaultConfig())

	catalogClient := catalog.NewClient(
		httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("catalog"), logger),
		cfg.CatalogBaseURL, cfg.CatalogAPIKey,
	)

	var confirmer payment.Confirmer
	if cfg.PaymentMock {
		logger.Warn("payment provider is mocked; all payments auto-approve")
		confirmer = paymentmock.NewConfirmer()
	} else {
		confirmer = payment.NewGateway(
			httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("payment"), logger),
			cfg.PaymentBaseURL, cfg.PaymentAPIKey,
		)
	}

	contactSender := relay.NewHTTPSender(baseClient, cfg.ContactRelayURL)

	// Services.
	cartService := service.NewCartService(cartRepo, catalogClient, eventProducer, logger, cfg.Currency)
	checkoutService := service.NewCheckoutService(cartService, orderRepo, confirmer, eventProducer, logger)
	contactService := service.NewContactService(contactSender, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(handler.RouterConfig{
		Logger:         logger,
		Health:         healthHandler,
		TokenValidator: auth.NewVerifier(cfg.JWTSecret).TokenValidator(),
		CORS:           cfg.CORS(),
		ServiceName:    serviceName,
		Cart:           cartService,
		Checkout:       checkoutService,
		Contact:        contactService,
		Catalog:        catalogClient,
		Orders:         orderRepo,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		rdb:             rdb,
		pool:            pool,
		producer:        producer,
		httpServer:      httpServer,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.shutdownTracing(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}

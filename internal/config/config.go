package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/hemloft/storefront/pkg/config"
	"github.com/hemloft/storefront/pkg/database"
	"github.com/hemloft/storefront/pkg/middleware"
	"github.com/hemloft/storefront/pkg/tracing"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Cart store
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart snapshots expire after this many hours of inactivity.
	CartTTLHours int    `env:"CART_TTL_HOURS" envDefault:"72"`
	Currency     string `env:"STOREFRONT_CURRENCY" envDefault:"USD"`

	// Order store
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"STOREFRONT_DB_NAME" envDefault:"storefront"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Payment provider
	PaymentBaseURL string `env:"PAYMENT_BASE_URL" envDefault:"http://localhost:8091"`
	PaymentAPIKey  string `env:"PAYMENT_API_KEY" envDefault:""`
	// PaymentMock swaps the provider for an always-approving stub; local only.
	PaymentMock bool `env:"PAYMENT_MOCK" envDefault:"false"`

	// Headless CMS catalog
	CatalogBaseURL string `env:"CATALOG_BASE_URL" envDefault:"http://localhost:8092"`
	CatalogAPIKey  string `env:"CATALOG_API_KEY" envDefault:""`

	// Contact relay
	ContactRelayURL string `env:"CONTACT_RELAY_URL" envDefault:"http://localhost:8093/send"`

	// Identity provider
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint   string  `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CartTTLHours < 1 {
		return fmt.Errorf("invalid cart TTL: %d hours", c.CartTTLHours)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("invalid currency code: %q", c.Currency)
	}
	return nil
}

// CartTTL returns the cart snapshot expiry as a duration.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// Redis returns the Redis connection config for the cart store.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPass,
		DB:       c.RedisDB,
	}
}

// Postgres returns the PostgreSQL connection config for the order store.
func (c *Config) Postgres() database.PostgresConfig {
	cfg := database.DefaultPostgresConfig()
	cfg.Host = c.PostgresHost
	cfg.Port = c.PostgresPort
	cfg.User = c.PostgresUser
	cfg.Password = c.PostgresPass
	cfg.DBName = c.PostgresDB
	cfg.SSLMode = c.PostgresSSL
	return cfg
}

// CORS returns the CORS middleware config.
func (c *Config) CORS() middleware.CORSConfig {
	cfg := middleware.DefaultCORSConfig()
	cfg.Environment = c.Environment
	if len(c.CORSAllowedOrigins) > 0 {
		cfg.AllowedOrigins = c.CORSAllowedOrigins
	}
	return cfg
}

// Tracing returns the OpenTelemetry tracing config.
func (c *Config) Tracing(serviceName string) tracing.Config {
	cfg := tracing.DefaultConfig(serviceName)
	cfg.Enabled = c.TracingEnabled
	cfg.Environment = c.Environment
	cfg.OTLPEndpoint = c.TracingEndpoint
	cfg.SampleRate = c.TracingSampleRate
	return cfg
}

package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/config"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/database"
)

// Payment provider selection values.
const (
	PaymentProviderMock = "mock"
	PaymentProviderREST = "rest"
)

// Config holds all configuration for the marketplace service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"MARKETPLACE_HTTP_PORT" envDefault:"8080"`

	// Redis (carts and pending vendor conflicts)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Cart retention
	CartTTLHours           int `env:"CART_TTL_HOURS" envDefault:"168"`
	PendingConflictTTLMins int `env:"PENDING_CONFLICT_TTL_MINUTES" envDefault:"15"`

	// PostgreSQL (checkout orders)
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"marketplace"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"marketplace_secret"`
	PostgresDB   string `env:"MARKETPLACE_DB_NAME" envDefault:"marketplace_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Remote collaborators
	PaymentProvider   string `env:"PAYMENT_PROVIDER" envDefault:"mock"`
	PaymentGatewayURL string `env:"PAYMENT_GATEWAY_URL" envDefault:"http://localhost:8091"`
	BookingAPIURL     string `env:"BOOKING_API_URL" envDefault:"http://localhost:8092"`

	// Checkout
	Currency string `env:"CHECKOUT_CURRENCY" envDefault:"MXN"`

	// Reservations interpret their local date and time in this zone.
	ReservationTimezone string `env:"RESERVATION_TIMEZONE" envDefault:"America/Mexico_City"`

	// Circuit breaker settings for remote collaborator calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load marketplace config: %w", err)
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
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.CartTTLHours < 1 {
		return fmt.Errorf("CART_TTL_HOURS must be at least 1, got %d", c.CartTTLHours)
	}
	if c.PendingConflictTTLMins < 1 {
		return fmt.Errorf("PENDING_CONFLICT_TTL_MINUTES must be at least 1, got %d", c.PendingConflictTTLMins)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.PaymentProvider != PaymentProviderMock && c.PaymentProvider != PaymentProviderREST {
		return fmt.Errorf("PAYMENT_PROVIDER must be %q or %q, got %q", PaymentProviderMock, PaymentProviderREST, c.PaymentProvider)
	}
	if c.Currency == "" {
		return fmt.Errorf("CHECKOUT_CURRENCY is required")
	}
	if _, err := time.LoadLocation(c.ReservationTimezone); err != nil {
		return fmt.Errorf("invalid RESERVATION_TIMEZONE %q: %w", c.ReservationTimezone, err)
	}
	for name, rawURL := range map[string]string{
		"PAYMENT_GATEWAY_URL": c.PaymentGatewayURL,
		"BOOKING_API_URL":     c.BookingAPIURL,
	} {
		if rawURL == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}
	return nil
}

// Postgres returns the connection pool settings.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the Redis connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// CartTTL returns the cart retention duration.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// PendingConflictTTL returns how long a retained conflict item survives.
func (c *Config) PendingConflictTTL() time.Duration {
	return time.Duration(c.PendingConflictTTLMins) * time.Minute
}

// ReservationLocation returns the parsed reservation timezone. validate()
// guarantees the name loads.
func (c *Config) ReservationLocation() *time.Location {
	loc, err := time.LoadLocation(c.ReservationTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/client"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/clock"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/config"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/domain"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/event"
	handler "github.com/PixelCodeeee/arroyo-seco-marketplace/internal/handler/http"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/payment"
	paymentmock "github.com/PixelCodeeee/arroyo-seco-marketplace/internal/payment/mock"
	paymentrest "github.com/PixelCodeeee/arroyo-seco-marketplace/internal/payment/rest"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/repository/postgres"
	redisrepo "github.com/PixelCodeeee/arroyo-seco-marketplace/internal/repository/redis"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/service"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/migrations"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/database"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/health"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/httpclient"
	pkgkafka "github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/kafka"
)

// App wires together all dependencies and runs the marketplace service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	redis      *goredis.Client
	pool       *pgxpool.Pool
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Redis holds carts and pending vendor conflicts.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))

	// PostgreSQL holds checkout orders.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.Files, logger); err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Kafka producer for domain events.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	eventProducer := event.NewProducer(producer, logger)

	// Repositories.
	cartRepo := redisrepo.NewCartRepository(redisClient, cfg.CartTTL(), cfg.PendingConflictTTL())
	checkoutRepo := postgres.NewCheckoutRepository(pool)

	// HTTP clients for remote collaborators, each behind its own breaker so
	// a failing payment gateway cannot shut out the booking API.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	})

	breakerFor := func(name string) *httpclient.CircuitBreakerClient {
		return httpclient.NewCircuitBreakerClient(baseClient, httpclient.CircuitBreakerConfig{
			Name:         name,
			MaxRequests:  cfg.CBMaxRequests,
			Interval:     time.Duration(cfg.CBInterval) * time.Second,
			Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
			FailureRatio: cfg.CBFailureRatio,
			MinRequests:  cfg.CBMinRequests,
		}, logger)
	}

	var provider payment.Provider
	switch cfg.PaymentProvider {
	case config.PaymentProviderREST:
		provider = paymentrest.NewProvider(breakerFor("payment-gateway"), cfg.PaymentGatewayURL)
	default:
		provider = paymentmock.NewProvider()
	}
	logger.Info("payment provider configured", slog.String("provider", provider.Name()))

	bookingClient := client.NewBookingClient(breakerFor("booking-api"), cfg.BookingAPIURL)

	// Services.
	cartService := service.NewCartService(cartRepo, eventProducer, logger)
	checkoutService := service.NewCheckoutService(checkoutRepo, cartService, provider, eventProducer, logger, cfg.Currency)
	reservationService := service.NewReservationService(
		bookingClient,
		domain.DefaultWindow(cfg.ReservationLocation()),
		clock.NewSystem(),
		logger,
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(cartService, checkoutService, reservationService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		redis:      redisClient,
		pool:       pool,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully stops all components: the HTTP server drains in-flight
// requests first, then the Kafka producer flushes, then the stores close.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

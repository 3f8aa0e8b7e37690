// Package app wires the basket server and the order worker: configuration,
// storage, the event bus, domain services, and graceful shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eshopgo/checkout-pipeline/internal/domain/basket"
	"github.com/eshopgo/checkout-pipeline/internal/domain/discount"
	"github.com/eshopgo/checkout-pipeline/internal/eventbus/rabbit"
	"github.com/eshopgo/checkout-pipeline/internal/handler"
	"github.com/eshopgo/checkout-pipeline/internal/storage/postgres"
	"github.com/eshopgo/checkout-pipeline/internal/storage/rediscache"
	"github.com/eshopgo/checkout-pipeline/pkg/health"
	"github.com/eshopgo/checkout-pipeline/pkg/httpmiddleware"
)

// RunBasket creates all basket server dependencies, starts the HTTP server,
// and handles graceful shutdown. It is the single wiring point for the
// basket side of the pipeline.
func RunBasket(ctx context.Context, lg *zap.Logger, cfg *Config) error {
	lg.Info("Initializing basket server", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Redis cache tier.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return errors.Wrap(err, "parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	// RabbitMQ connection + publisher.
	bus, err := rabbit.Dial(zctx.Base(ctx, lg), cfg.AmqpURL)
	if err != nil {
		return errors.Wrap(err, "connect event bus")
	}
	defer func() { _ = bus.Close() }()

	publisher, err := rabbit.NewPublisher(bus)
	if err != nil {
		return errors.Wrap(err, "create publisher")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthSvc.AddReadinessCheck("rabbitmq", 5*time.Second, bus.Ping)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories: durable store fronted by the Redis cache.
	basketStore := postgres.NewBasketRepository(pool)
	basketRepo := rediscache.NewCachedRepository(
		rediscache.NewRedisCache(redisClient, cfg.CacheTTL),
		basketStore,
	)
	discountRepo := postgres.NewDiscountRepository(pool)

	// Domain services.
	applier := discount.NewRepoApplier(discountRepo)
	basketSvc := basket.NewService(basketRepo, applier, publisher)

	// HTTP handlers.
	h := handler.NewHandler(basketSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

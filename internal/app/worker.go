package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eshopgo/checkout-pipeline/internal/consumer"
	"github.com/eshopgo/checkout-pipeline/internal/dispatch"
	"github.com/eshopgo/checkout-pipeline/internal/domain/order"
	"github.com/eshopgo/checkout-pipeline/internal/event"
	"github.com/eshopgo/checkout-pipeline/internal/eventbus/rabbit"
	"github.com/eshopgo/checkout-pipeline/internal/storage/postgres"
	"github.com/eshopgo/checkout-pipeline/pkg/health"
)

// RunOrderWorker creates the order worker dependencies, subscribes to
// checkout events, and serves health probes until the context is cancelled.
func RunOrderWorker(ctx context.Context, lg *zap.Logger, cfg *Config) error {
	lg.Info("Initializing order worker",
		zap.String("queue", cfg.CheckoutQueue),
		zap.String("addr", cfg.WorkerAddr),
	)
	ctx = zctx.Base(ctx, lg)

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// RabbitMQ connection.
	bus, err := rabbit.Dial(ctx, cfg.AmqpURL)
	if err != nil {
		return errors.Wrap(err, "connect event bus")
	}
	defer func() { _ = bus.Close() }()

	// Domain event handlers. Handlers run inside the order save
	// transaction, so a failing handler aborts the write that raised the
	// event.
	registry := dispatch.NewRegistry()
	registry.On(order.KindOrderCreated, consumer.LogDomainEvent)
	registry.On(order.KindOrderUpdated, consumer.LogDomainEvent)
	if cfg.OrderFulfillment {
		publisher, err := rabbit.NewPublisher(bus)
		if err != nil {
			return errors.Wrap(err, "create publisher")
		}
		registry.On(order.KindOrderCreated, consumer.AnnounceFulfillment(publisher))
		lg.Info("Order fulfillment announcements enabled")
	}

	orderRepo := postgres.NewOrderRepository(pool, registry)
	checkout := consumer.NewCheckout(orderRepo)

	subscriber, err := rabbit.NewSubscriber(bus)
	if err != nil {
		return errors.Wrap(err, "create subscriber")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddReadinessCheck("rabbitmq", 5*time.Second, bus.Ping)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)
	defer healthSvc.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		Addr:              cfg.WorkerAddr,
		Handler:           mux,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Consuming checkout events", zap.String("queue", cfg.CheckoutQueue))
		err := subscriber.Subscribe(ctx, cfg.CheckoutQueue, event.TypeBasketCheckout, checkout.HandleMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "health server")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		healthSvc.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	appCustomer "github.com/Zhima-Mochi/minishop-orders/internal/application/customer"
	appInventory "github.com/Zhima-Mochi/minishop-orders/internal/application/inventory"
	appOrder "github.com/Zhima-Mochi/minishop-orders/internal/application/order"
	appProduct "github.com/Zhima-Mochi/minishop-orders/internal/application/product"
	"github.com/Zhima-Mochi/minishop-orders/internal/config"
	domainCustomer "github.com/Zhima-Mochi/minishop-orders/internal/domain/customer"
	domainInventory "github.com/Zhima-Mochi/minishop-orders/internal/domain/inventory"
	domainOrder "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	domainProduct "github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/cache"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/kafka"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-orders/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-orders/internal/presentation/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "minishop-orders: %v\n", err)
		os.Exit(1)
	}
}

// repositories is the storage backend selected by STORAGE.
type repositories struct {
	customers domainCustomer.Repository
	products  domainProduct.Repository
	orders    domainOrder.Repository
	tx        application.Transactor
	close     func()
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	baseLogger, err := logging.NewLogger(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)
	logger := zaplogger.New(baseLogger)
	systemLogger := logger.With(observability.F("component", "system"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: cfg.ServiceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			systemLogger.Warn("tracing_shutdown_error", observability.F("error", err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	counters, histograms, err := prometrics.New(registry, "").Instruments(observability.CounterSpecs, observability.HistogramSpecs)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	tel := infraobs.New(oteltrace.New(tp, cfg.ServiceName), logger, counters, histograms)

	repos, err := openRepositories(ctx, cfg, tel)
	if err != nil {
		return err
	}
	defer repos.close()

	customers := repos.customers
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// the cache degrades to the repository, so an unreachable redis is not fatal
			systemLogger.Warn("redis_unreachable", observability.F("addr", cfg.RedisAddr), observability.F("error", err))
		}
		customers = cache.NewCustomerRepository(customers, rdb, cfg.CustomerCacheTTL, cfg.ServiceName, tel)
	}

	bus := outbox.NewBus(logger)
	events := workerpresentation.NewSubscriber(bus, "bus", logger)

	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic), cfg.KafkaTopic, logger)
		defer func() { _ = kp.Close() }()
		kp.Relay(events,
			domainOrder.OrderCreatedEvent{}.EventName(),
			domainInventory.LowStockEvent{}.EventName(),
		)
	}

	policy, err := domainInventory.NewPolicy(cfg.LowStockThreshold)
	if err != nil {
		return err
	}
	appInventory.NewWorker(events, appInventory.NewDetectLowStockUseCase(policy, bus, tel), tel).Start()

	bus.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := bus.Stop(stopCtx); err != nil {
			systemLogger.Warn("event_bus_stop_error", observability.F("error", err))
		}
	}()

	handler := httppresentation.NewHandler(httppresentation.UseCases{
		CreateCustomer: appCustomer.NewCreateCustomerUseCase(customers, tel),
		CreateProduct:  appProduct.NewCreateProductUseCase(repos.products, tel),
		CreateOrder:    appOrder.NewCreateOrderUseCase(customers, repos.products, repos.orders, repos.tx, bus, tel),
		FindOrder:      appOrder.NewFindOrderUseCase(repos.orders, tel),
	}, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start", observability.F("addr", server.Addr), observability.F("storage", cfg.Storage))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			systemLogger.Error("http_server_error", observability.F("error", err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", observability.F("error", err))
		return err
	}
	systemLogger.Info("http_server_stopped")
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config, tel observability.Observability) (*repositories, error) {
	if cfg.Storage != config.StoragePostgres {
		store := memory.NewStore()
		return &repositories{
			customers: store.Customers(),
			products:  store.Products(),
			orders:    store.Orders(),
			tx:        store,
			close:     func() {},
		}, nil
	}

	pool, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	applied, err := postgres.NewMigrator(pool, nil, tel.Logger()).Up(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	tel.Logger().Info("migrations_applied", observability.F("count", applied))

	return &repositories{
		customers: postgres.NewCustomerRepository(pool),
		products:  postgres.NewProductRepository(pool),
		orders:    postgres.NewOrderRepository(pool),
		tx:        postgres.NewTransactor(pool),
		close:     pool.Close,
	}, nil
}

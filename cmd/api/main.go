package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/sales-ledger/internal/application/catalog"
	"github.com/jhoicas/sales-ledger/internal/application/inventory"
	"github.com/jhoicas/sales-ledger/internal/application/ports"
	"github.com/jhoicas/sales-ledger/internal/application/sales"
	"github.com/jhoicas/sales-ledger/internal/domain/repository"
	domainsales "github.com/jhoicas/sales-ledger/internal/domain/sales"
	"github.com/jhoicas/sales-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/sales-ledger/internal/infrastructure/notify"
	"github.com/jhoicas/sales-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/sales-ledger/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/sales-ledger/internal/interfaces/http"
	"github.com/jhoicas/sales-ledger/pkg/config"
	"github.com/jhoicas/sales-ledger/pkg/logger"
)

// version se sobreescribe en build con -ldflags "-X main.version=...".
var version = "dev"

// storage repositorios de lectura y unidad de trabajo del backend elegido.
type storage struct {
	txRunner  inventory.TxRunner
	products  repository.ProductRepository
	customers repository.CustomerRepository
	sales     repository.SaleRepository
	movements repository.InventoryMovementRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("version", version).
		Msg("iniciando aplicación")

	ctx := context.Background()

	tp, shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: version,
		Environment:    cfg.App.Env,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.App.Env != "production",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas OTLP")
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer store.close()

	sink, closeSink, err := buildSink(cfg, tp, log)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar notificador de stock bajo")
	}
	dispatcher := notify.NewDispatcher(sink, cfg.Notifier.Workers, cfg.Notifier.QueueSize, log)
	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	dispatcher.Start(dispatchCtx)

	var metrics ports.Metrics = ports.NopMetrics{}
	var promMetrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		promMetrics = telemetry.NewMetrics("sales_ledger")
		metrics = promMetrics
	}

	ledger := inventory.NewLedger(store.txRunner, dispatcher, log,
		inventory.WithLedgerMetrics(metrics),
		inventory.WithLedgerRetries(cfg.Sales.MaxRetries),
	)
	processor := sales.NewSaleTransactionProcessor(
		store.txRunner, ledger,
		store.customers, store.products, store.sales,
		sales.Config{
			TaxPolicy:       domainsales.TaxPolicy{DefaultRatePercent: cfg.Sales.DefaultTaxRate},
			DefaultCurrency: cfg.Sales.DefaultCurrency,
			Timeout:         cfg.Sales.Timeout,
			MaxRetries:      cfg.Sales.MaxRetries,
		},
		log,
		sales.WithMetrics(metrics),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Sales Ledger API",
	}))

	deps := httpRouter.RouterDeps{
		Sales:     processor,
		Ledger:    ledger,
		History:   inventory.NewMovementHistoryUseCase(store.products, store.movements),
		LowStock:  inventory.NewLowStockUseCase(store.products),
		Products:  catalog.NewProductUseCase(store.products, ledger),
		Customers: catalog.NewCustomerUseCase(store.customers),
		JWTSecret: cfg.JWT.Secret,
		AppName:   cfg.App.Name,
	}
	if promMetrics != nil {
		deps.Metrics = promMetrics.Handler()
	}
	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Fatal().Err(err).Msg("servidor HTTP")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("apagando servidor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown HTTP")
	}
	// Drenar las señales pendientes antes de cerrar el destino.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("cerrar notificador")
	}
	stopDispatch()
	if err := closeSink(); err != nil {
		log.Warn().Err(err).Msg("cerrar destino de notificaciones")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("cerrar trazas")
	}
	log.Info().Msg("servidor detenido")
}

// openStorage usa PostgreSQL salvo en APP_ENV=test, donde arranca el almacén en memoria.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.App.Env == "test" {
		log.Warn().Msg("APP_ENV=test: almacenamiento en memoria, los datos no persisten")
		st := memory.NewStore()
		return &storage{
			txRunner:  st,
			products:  st.Products(),
			customers: st.Customers(),
			sales:     st.Sales(),
			movements: st.Movements(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrar esquema: %w", err)
		}
		log.Info().Msg("esquema de base de datos al día")
	}
	return &storage{
		txRunner:  postgres.NewTxRunner(pool, cfg.Sales.LockTimeout),
		products:  postgres.NewProductRepository(pool),
		customers: postgres.NewCustomerRepository(pool),
		sales:     postgres.NewSaleRepository(pool),
		movements: postgres.NewInventoryMovementRepository(pool),
		close:     pool.Close,
	}, nil
}

// buildSink elige el destino de las señales de stock bajo según NOTIFIER_DRIVER.
func buildSink(cfg *config.Config, tp trace.TracerProvider, log *logger.Logger) (notify.Sink, func() error, error) {
	switch cfg.Notifier.Driver {
	case "redis":
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		log.Info().Str("queue", cfg.Redis.LowStockQueue).Msg("señales de stock bajo hacia Redis")
		return notify.NewRedisSink(rdb, cfg.Redis.LowStockQueue), rdb.Close, nil
	case "kafka":
		producer, err := notify.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.LowStockTopic, cfg.App.Name, tp)
		if err != nil {
			return nil, nil, err
		}
		sink := notify.NewKafkaSink(producer)
		log.Info().Str("topic", cfg.Kafka.LowStockTopic).Strs("brokers", cfg.Kafka.Brokers).Msg("señales de stock bajo hacia Kafka")
		return sink, sink.Close, nil
	default:
		return notify.NewLogSink(log), func() error { return nil }, nil
	}
}

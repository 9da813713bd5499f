package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/inventory-ledger/docs"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/rules"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/kafka"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventory-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventory-ledger/pkg/config"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// stores puertos de persistencia según el driver configurado.
type stores struct {
	txRunner   inventory.TxRunner
	items      repository.ItemRepository
	movements  repository.InventoryMovementRepository
	alerts     repository.AlertRepository
	categories repository.CategoryRepository
	suppliers  repository.SupplierRepository
	locations  repository.LocationRepository
	close      func()
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
		Str("store", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer st.close()

	engineOpts := []inventory.EngineOption{
		inventory.WithLogger(log.Component("stock_engine")),
		inventory.WithMaxRetries(cfg.Stock.MaxRetries),
	}

	reg := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		stockMetrics, err := metrics.NewStockMetrics(reg)
		if err != nil {
			log.Fatal().Err(err).Msg("registrar métricas")
		}
		engineOpts = append(engineOpts, inventory.WithObserver(stockMetrics))
	}

	// Eventos stock.changed: solo con brokers configurados.
	if cfg.Kafka.Enabled() {
		publisher, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log.Component("kafka"))
		if err != nil {
			log.Fatal().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("conexión a Kafka")
		}
		defer publisher.Close()
		engineOpts = append(engineOpts, inventory.WithEventPublisher(publisher))
	}

	engine := inventory.NewStockEngine(st.txRunner, st.alerts, engineOpts...)
	registry := rules.NewDefaultRegistry(log.Component("rules"))
	query := inventory.NewQueryService(st.items, st.categories)

	itemUC := usecase.NewItemUseCase(usecase.ItemUseCaseDeps{
		Engine:     engine,
		TxRunner:   st.txRunner,
		Items:      st.items,
		Movements:  st.movements,
		Categories: st.categories,
		Suppliers:  st.suppliers,
		Locations:  st.locations,
		Validator:  registry,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI: http://localhost:<port>/docs
	if cfg.App.SwaggerEnabled {
		app.Use(swagger.New(swagger.Config{
			BasePath:    "/",
			FileContent: []byte(docs.SwaggerInfo.ReadDoc()),
			Path:        "docs",
			Title:       "Inventory Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.DB.Driver})
	})
	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:        engine,
		Ledger:        inventory.NewLedger(st.movements),
		Query:         query,
		Replenishment: inventory.NewReplenishmentUseCase(st.items),
		ItemUC:        itemUC,
		CatalogUC:     usecase.NewCatalogUseCase(st.categories, st.suppliers, st.locations),
		AlertUC:       usecase.NewAlertUseCase(st.alerts),
		RuleUC:        usecase.NewRuleUseCase(registry, st.items),
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.DB.Driver == "memory" {
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
		m := memory.New()
		return &stores{
			txRunner:   m,
			items:      m.Items(),
			movements:  m.Movements(),
			alerts:     m.Alerts(),
			categories: m.Categories(),
			suppliers:  m.Suppliers(),
			locations:  m.Locations(),
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, log.Component("postgres"))
	if err != nil {
		return nil, err
	}
	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &stores{
		txRunner:   postgres.NewTxRunner(pool),
		items:      postgres.NewItemRepository(pool),
		movements:  postgres.NewInventoryMovementRepository(pool),
		alerts:     postgres.NewAlertRepository(pool),
		categories: postgres.NewCategoryRepository(pool),
		suppliers:  postgres.NewSupplierRepository(pool),
		locations:  postgres.NewLocationRepository(pool),
		close:      pool.Close,
	}, nil
}

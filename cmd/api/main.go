package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"stockledger/internal/cache"
	"stockledger/internal/event"
	"stockledger/internal/handler"
	"stockledger/internal/metrics"
	"stockledger/internal/middleware"
	"stockledger/internal/repository"
	"stockledger/internal/service"
	"stockledger/internal/ws"
	"stockledger/pkg/config"
	"stockledger/pkg/database"
	"stockledger/pkg/jwt"
	"stockledger/pkg/logger"
	"stockledger/pkg/tracing"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Config & logging
	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Init(cfg.Tracing.ServiceName, cfg.Server.IsDevelopment())
	logger.SetLevel(cfg.Server.LogLevel)

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing.ServiceName, cfg.Tracing.OTLPEndpoint)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
		}
	}()

	// 2. Database
	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Database unavailable")
	}
	if err := database.Migrate(db); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Migration failed")
	}

	// 3. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.NewLedger(reg)
	reportMetrics := metrics.NewReports(reg)
	httpMetrics := metrics.NewHTTP(reg)

	// 4. Event fan-out: websocket hub, plus Kafka when brokers are configured
	wsHub := ws.NewHub()
	go wsHub.Run(ctx)
	metrics.RegisterWSClients(reg, wsHub.ClientCount)

	publishers := event.Multi{event.NewHubPublisher(wsHub)}
	if cfg.Kafka.Enabled() {
		kafkaPublisher, err := event.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka publisher")
		}
		defer kafkaPublisher.Close()
		publishers = append(publishers, kafkaPublisher)
	}

	opts := []service.Option{
		service.WithPublisher(publishers),
		service.WithLedgerMetrics(ledgerMetrics),
		service.WithReportMetrics(reportMetrics),
	}
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Redis unavailable")
		}
		defer client.Close()
		opts = append(opts, service.WithCache(cache.NewRedisCache(client, "stockledger:"), cfg.Redis.ReportTTL))
		logger.Logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.ReportTTL).Msg("Dashboard cache enabled")
	}

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	txRepo := repository.NewTransactionRepo(db)

	reportSettings := service.ReportSettings{
		TopSellingWindowDays: cfg.Reports.TopSellingWindowDays,
		TopSellingLimit:      cfg.Reports.TopSellingLimit,
	}
	ledgerService := service.NewLedgerService(db, productRepo, txRepo, opts...)
	reportService := service.NewReportService(productRepo, categoryRepo, supplierRepo, txRepo, reportSettings, opts...)
	productService := service.NewProductService(db, productRepo, categoryRepo, supplierRepo, txRepo, opts...)
	categoryService := service.NewCategoryService(categoryRepo, opts...)
	supplierService := service.NewSupplierService(db, supplierRepo, productRepo, opts...)

	handlers := handler.Handlers{
		Products:     handler.NewProductHandler(productService, ledgerService),
		Categories:   handler.NewCategoryHandler(categoryService, reportService),
		Suppliers:    handler.NewSupplierHandler(supplierService, reportService),
		Transactions: handler.NewTransactionHandler(ledgerService),
		Reports:      handler.NewReportHandler(reportService, reportSettings),
	}
	tokens := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Stock Ledger v1.0",
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Metrics(httpMetrics))

	app.Get("/healthz", handler.Healthz(db))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// 7. Routes
	api := app.Group("/api/v1")
	handler.RegisterRoutes(api, handlers, middleware.RequireAuth(tokens))

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !wsHub.Join(c) {
			return
		}
		defer wsHub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		logger.Logger.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Logger.Error().Err(err).Msg("Server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Logger.Info().Msg("Server exited")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	billingapp "github.com/rentora/backend/internal/application/billing"
	leasingapp "github.com/rentora/backend/internal/application/leasing"
	"github.com/rentora/backend/internal/infrastructure/cache"
	"github.com/rentora/backend/internal/infrastructure/config"
	"github.com/rentora/backend/internal/infrastructure/logger"
	"github.com/rentora/backend/internal/infrastructure/persistence"
	"github.com/rentora/backend/internal/infrastructure/scheduler"
	"github.com/rentora/backend/internal/infrastructure/telemetry"
	"github.com/rentora/backend/internal/interfaces/http/handler"
	"github.com/rentora/backend/internal/interfaces/http/middleware"
	"github.com/rentora/backend/internal/interfaces/http/router"
)

//	@title			Rentora Billing API
//	@version		1.0
//	@description	Rental billing backend: leases, recurring invoices, usage metering and payment tracking.

//	@contact.name	API Support
//	@contact.url	https://github.com/rentora/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Rentora Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize tracing (no-op when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:  true,
			DBSystem: "postgresql",
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	leaseRepo := persistence.NewGormLeaseRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	usageRepo := persistence.NewGormUsageRecordRepository(db.DB)
	sequenceRepo := persistence.NewGormInvoiceSequenceRepository(db.DB)

	// Initialize application services
	leaseService := leasingapp.NewLeaseService(leaseRepo, log)
	invoiceService := billingapp.NewInvoiceService(
		leaseRepo, invoiceRepo, usageRepo, sequenceRepo, log,
		billingapp.WithGraceDays(cfg.Billing.GraceDays),
	)
	billingRunService := billingapp.NewBillingRunService(leaseRepo, invoiceRepo, invoiceService, log)
	usageService := billingapp.NewUsageService(leaseRepo, usageRepo, log)

	// Run guard keeps the daily jobs single-shot across instances.
	// Falls back to an in-process guard when Redis is not configured.
	runGuard, err := cache.NewRunGuardFromConfig(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize run guard", zap.Error(err))
	}
	defer func() {
		if err := runGuard.Close(); err != nil {
			log.Error("Error closing run guard", zap.Error(err))
		}
	}()

	// Start the daily billing trigger (if enabled)
	if cfg.Billing.RunEnabled {
		triggerConfig := scheduler.DefaultBillingTriggerConfig()
		triggerConfig.BillingRunHour = cfg.Billing.RunHour
		triggerConfig.OverdueSweepHour = cfg.Billing.OverdueSweepHour
		billingTrigger := scheduler.NewBillingTrigger(triggerConfig, billingRunService, invoiceService, runGuard, log)
		if err := billingTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start billing trigger", zap.Error(err))
		}
		defer func() {
			if err := billingTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping billing trigger", zap.Error(err))
			}
		}()
		log.Info("Billing trigger started",
			zap.Int("run_hour", triggerConfig.BillingRunHour),
			zap.Int("sweep_hour", triggerConfig.OverdueSweepHour),
		)
	}

	// Initialize HTTP handlers
	leaseHandler := handler.NewLeaseHandler(leaseService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, billingRunService)
	usageHandler := handler.NewUsageHandler(usageService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans (if enabled)
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Liveness and readiness endpoints (outside API versioning). Readiness
	// additionally confirms the database connection.
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	engine.GET("/ready", readinessHandler(db, log))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(systemHandler).
		Register(leaseHandler).
		Register(invoiceHandler).
		Register(usageHandler)
	r.Setup()

	// Simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// readinessHandler returns a handler that reports whether the service can
// take traffic
func readinessHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

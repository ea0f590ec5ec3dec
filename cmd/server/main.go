package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/allocation"
	"github.com/pharmawms/backend/internal/application/conference"
	"github.com/pharmawms/backend/internal/application/document"
	"github.com/pharmawms/backend/internal/application/lifecycle"
	"github.com/pharmawms/backend/internal/application/picking"
	"github.com/pharmawms/backend/internal/application/uow"
	"github.com/pharmawms/backend/internal/application/wave"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/audit"
	"github.com/pharmawms/backend/internal/infrastructure/auth"
	"github.com/pharmawms/backend/internal/infrastructure/cache"
	"github.com/pharmawms/backend/internal/infrastructure/config"
	htmldoc "github.com/pharmawms/backend/internal/infrastructure/document"
	"github.com/pharmawms/backend/internal/infrastructure/event"
	"github.com/pharmawms/backend/internal/infrastructure/logger"
	"github.com/pharmawms/backend/internal/infrastructure/persistence"
	"github.com/pharmawms/backend/internal/infrastructure/readmodel"
	"github.com/pharmawms/backend/internal/infrastructure/scheduler"
	"github.com/pharmawms/backend/internal/infrastructure/storage"
	"github.com/pharmawms/backend/internal/infrastructure/strategy"
	"github.com/pharmawms/backend/internal/infrastructure/telemetry"
	"github.com/pharmawms/backend/internal/interfaces/http/handler"
	"github.com/pharmawms/backend/internal/interfaces/http/middleware"
	"github.com/pharmawms/backend/internal/interfaces/http/router"
)

//	@title			Pharma WMS API
//	@version		1.0
//	@description	Lot-tracked warehouse engine: allocation, waves, picking, conference and lot lifecycle.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting warehouse backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, cfg.Telemetry.LogsEnabled, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = loggerProvider.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:   log.Named("gorm"),
		LogLevel: logger.GormLevel(cfg.Log.Level),
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if err := telemetry.InstrumentDB(db.DB, telemetry.DBTracingConfig{
		Enabled:        cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:         cfg.Database.DBName,
		SlowQueryAfter: 200 * time.Millisecond,
	}, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}

	meter := meterProvider.Meter("pharmawms")
	if err := telemetry.ObserveDBPool(db.DB, meter); err != nil {
		log.Warn("Database pool metrics unavailable", zap.Error(err))
	}
	var metrics uow.Metrics = uow.NopMetrics{}
	if wm, err := telemetry.NewWarehouseMetrics(meter); err != nil {
		log.Warn("Warehouse metrics unavailable", zap.Error(err))
	} else {
		metrics = wm
	}

	redisFactory := cache.NewFactory(cfg.Redis, log)
	if err := redisFactory.Connect(ctx); err != nil {
		log.Warn("Redis unavailable, continuing without it", zap.Error(err))
	}
	defer func() {
		_ = redisFactory.Close()
	}()

	// Events are published after commit; audit sinks never fail a request
	bus := event.NewInMemoryEventBus(log.Named("events"), event.WithAsyncDispatch())
	bus.Subscribe(audit.NewLogSink(log.Named("audit")))
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.DialKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID, log)
		if err != nil {
			log.Fatal("Failed to connect audit sink", zap.Error(err))
		}
		defer func() {
			_ = kafkaSink.Close()
		}()
		bus.Subscribe(event.NewIdempotentHandler(kafkaSink, redisFactory.IdempotencyStore(), log))
		log.Info("Kafka audit sink enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	registry, err := strategy.NewRegistryWithDefaults()
	if err != nil {
		log.Fatal("Failed to register lot strategies", zap.Error(err))
	}
	if cfg.Picking.DefaultPolicy != "" {
		policy, err := outbound.ParsePolicy(cfg.Picking.DefaultPolicy)
		if err == nil {
			err = registry.SetDefault(policy)
		}
		if err != nil {
			log.Fatal("Invalid default allocation policy", zap.Error(err))
		}
	}

	scope := persistence.NewGormTransactionScope(db.DB)
	sequence := redisFactory.SequenceGenerator(cfg.Picking.SequenceSource, persistence.NewGormSequenceGenerator(db.DB))

	allocationService := allocation.NewService(scope, registry, log)
	waveService := wave.NewService(scope, outbound.NewWaveNumberer(sequence, cfg.Picking.WavePrefix), log)
	pickingService := picking.NewService(scope, registry, log)
	receivingService := conference.NewReceivingService(scope, log)
	stagingService := conference.NewStagingService(scope, log)
	lifecycleService := lifecycle.NewService(scope, log)
	lifecycleService.SetExpiryBatchSize(cfg.Scheduler.ExpiryBatch)

	for _, svc := range []interface {
		SetEventPublisher(shared.EventPublisher)
	}{allocationService, waveService, pickingService, receivingService, stagingService, lifecycleService} {
		svc.SetEventPublisher(bus)
	}
	for _, svc := range []interface{ SetMetrics(uow.Metrics) }{
		allocationService, pickingService, receivingService, stagingService,
	} {
		svc.SetMetrics(metrics)
	}

	renderer, err := htmldoc.NewHTMLRenderer()
	if err != nil {
		log.Fatal("Failed to parse document templates", zap.Error(err))
	}
	var archive document.Archive = storage.NewMemoryArchive()
	if cfg.Storage.Enabled {
		s3Archive, err := storage.NewS3DocumentArchive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to configure document storage", zap.Error(err))
		}
		if err := s3Archive.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare document bucket", zap.Error(err))
		}
		archive = s3Archive
		log.Info("Document archive enabled", zap.String("bucket", s3Archive.Bucket()))
	} else {
		log.Warn("Document storage disabled, archiving in memory")
	}
	var docRenderer document.Renderer = renderer
	if cfg.Documents.PDFEnabled {
		pdf := htmldoc.NewPDFRenderer(renderer, htmldoc.PDFConfig{
			RemoteURL:     cfg.Documents.ChromeURL,
			NoSandbox:     cfg.Documents.NoSandbox,
			RenderTimeout: cfg.Documents.RenderTimeout,
			Logger:        log.Named("pdf"),
		})
		defer pdf.Close()
		docRenderer = pdf
	}
	documentService := document.NewService(scope, docRenderer, archive, log)

	expiryCfg := scheduler.DefaultExpirySchedulerConfig()
	expiryCfg.Enabled = cfg.Scheduler.Enabled
	if cfg.Scheduler.ExpiryInterval > 0 {
		expiryCfg.Interval = cfg.Scheduler.ExpiryInterval
	}
	if cfg.Scheduler.ExpiryBatch > 0 {
		expiryCfg.BatchSize = cfg.Scheduler.ExpiryBatch
	}
	expiryScheduler := scheduler.NewExpiryScheduler(lifecycleService, log, expiryCfg)
	if err := expiryScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start expiry scheduler", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORS(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", healthHandler(db))

	verifier := auth.NewVerifier(cfg.JWT)
	jwtConfig := middleware.DefaultJWTConfig(verifier)
	jwtConfig.Logger = log

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuth(jwtConfig), middleware.SpanAttributes(), middleware.ProfilingLabels(profiler.Enabled()))
	router.RegisterWarehouseRoutes(r, router.Handlers{
		Orders:    handler.NewOrderHandler(allocationService, lifecycleService),
		Waves:     handler.NewWaveHandler(waveService),
		Picking:   handler.NewPickingHandler(pickingService),
		Receiving: handler.NewReceivingHandler(receivingService),
		Staging:   handler.NewStagingHandler(stagingService),
		Lots:      handler.NewLotHandler(lifecycleService),
		Queries:   handler.NewQueryHandler(readmodel.NewQueries(db.DB)),
		Documents: handler.NewDocumentHandler(documentService),
	})
	routes := r.Setup()
	log.Info("Routes registered", zap.Int("count", len(routes)))
	for _, rt := range routes {
		log.Debug("route", zap.String("group", rt.Group), zap.String("method", rt.Method), zap.String("path", rt.Path))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := expiryScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Expiry scheduler did not stop cleanly", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Metrics shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracing shutdown failed", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Profiler shutdown failed", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Log export shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.FromContext(c.Request.Context()).Warn("Health check failed", zap.Error(err))
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

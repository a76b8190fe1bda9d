package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	directoryapp "github.com/equiptrack/backend/internal/application/directory"
	identityapp "github.com/equiptrack/backend/internal/application/identity"
	transferapp "github.com/equiptrack/backend/internal/application/transfer"
	"github.com/equiptrack/backend/internal/infrastructure/auth"
	"github.com/equiptrack/backend/internal/infrastructure/cache"
	"github.com/equiptrack/backend/internal/infrastructure/config"
	"github.com/equiptrack/backend/internal/infrastructure/event"
	"github.com/equiptrack/backend/internal/infrastructure/logger"
	"github.com/equiptrack/backend/internal/infrastructure/persistence"
	"github.com/equiptrack/backend/internal/infrastructure/telemetry"
	"github.com/equiptrack/backend/internal/interfaces/http/handler"
	"github.com/equiptrack/backend/internal/interfaces/http/middleware"
	"github.com/equiptrack/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting equipment tracking service",
		zap.String("name", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Tracing is a no-op provider when telemetry is disabled.
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	deviceRepo := persistence.NewGormDeviceRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	equipmentRepo := persistence.NewGormEquipmentRepository(db.DB)
	transferRepo := persistence.NewGormTransferRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Device lookups fall back to an in-process cache when Redis is not
	// reachable at startup.
	var deviceCache directoryapp.DeviceBranchCache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Warn("Redis unavailable, using in-memory device cache", zap.Error(err))
			deviceCache = cache.NewInMemoryDeviceBranchCache(cfg.Redis.DeviceCacheTTL)
		} else {
			deviceCache = cache.NewRedisDeviceBranchCache(redisClient, cfg.Redis.DeviceCacheTTL, log)
		}
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	directoryService := directoryapp.NewService(branchRepo, deviceRepo, deviceCache, log)
	transferService := transferapp.NewService(transferRepo, equipmentRepo, userRepo, directoryService, log)
	authService := identityapp.NewAuthService(userRepo, jwtService, log)

	// Relocation tasks enqueued by store scans are drained by the outbox
	// processor, which moves the received units to their destination branch.
	if cfg.Outbox.ProcessorEnabled {
		processor := event.NewOutboxProcessor(outboxRepo, event.OutboxProcessorConfig{
			BatchSize:    cfg.Outbox.BatchSize,
			PollInterval: cfg.Outbox.PollInterval,
		}, log)
		if err := processor.Register(transferapp.NewRelocationHandler(equipmentRepo, log)); err != nil {
			log.Fatal("Failed to register relocation handler", zap.Error(err))
		}
		if err := processor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := processor.Stop(ctx); err != nil {
				log.Warn("Outbox processor shutdown failed", zap.Error(err))
			}
		}()
	} else {
		log.Info("Outbox processor disabled")
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(1<<20),
		middleware.RateLimit(middleware.NewRateLimiter(300, time.Minute)),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
	)

	systemHandler := handler.NewSystemHandler(db, cfg.App.Name)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	r := router.NewRouter(engine)
	r.Register(handler.NewAuthHandler(authService))
	r.Register(handler.NewTransferHandler(transferService, directoryService, jwtService))
	r.Register(handler.NewOutboxHandler(outboxRepo, jwtService))
	r.Setup()

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

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

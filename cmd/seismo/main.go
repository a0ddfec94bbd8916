package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/seismo/internal/application/telemetry"
	"github.com/aescanero/seismo/internal/config"
	"github.com/aescanero/seismo/pkg/adapters/events/memory"
	redisevents "github.com/aescanero/seismo/pkg/adapters/events/redis"
	"github.com/aescanero/seismo/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/seismo/pkg/api/grpc"
	"github.com/aescanero/seismo/pkg/api/http"
	"github.com/aescanero/seismo/pkg/api/websocket"
	"github.com/aescanero/seismo/pkg/ports"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting Seismo Cardio API",
		zap.String("version", Version),
		zap.String("api_version", cfg.APIVersion),
		zap.String("build_time", BuildTime))

	ctx := context.Background()

	eventBus, closeEvents, err := newEventBus(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to create event bus", zap.Error(err))
	}

	metricsCollector := prometheus.NewCollector()

	telemetryService := telemetry.NewService(eventBus, metricsCollector, logger)

	httpCfg := &http.Config{
		Addr:              cfg.GetHTTPAddr(),
		Version:           cfg.APIVersion,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		ReadHeaderTimeout: cfg.Timeouts.ReadHeaderTimeout,
		Telemetry:         telemetryService,
		Metrics:           metricsCollector,
		Logger:            logger,
	}
	if cfg.MetricsEnabled {
		httpCfg.MetricsHandler = metricsCollector.Handler()
	}
	httpServer := http.NewServer(httpCfg)

	if cfg.StreamEnabled {
		httpServer.SetupStream(websocket.NewHandler(eventBus, metricsCollector, cfg.CORS.AllowedOrigins, logger))
	}

	var grpcServer *grpc.Server
	if cfg.GRPC.Enabled {
		grpcServer, err = grpc.NewServer(&grpc.Config{
			Addr:   cfg.GetGRPCAddr(),
			Logger: logger,
		})
		if err != nil {
			logger.Fatal("failed to create gRPC server", zap.Error(err))
		}
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Start(); err != nil {
				logger.Fatal("gRPC server failed", zap.Error(err))
			}
		}()
	}

	logger.Info("Seismo Cardio API started",
		zap.String("http_addr", cfg.GetHTTPAddr()),
		zap.Bool("grpc_enabled", cfg.GRPC.Enabled),
		zap.String("events_backend", cfg.Events.Backend))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if grpcServer != nil {
		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("gRPC server shutdown error", zap.Error(err))
		}
	}

	if err := closeEvents(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	logger.Info("Seismo Cardio API shut down complete")
}

// newEventBus builds the configured event bus and a function releasing it
func newEventBus(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EventBus, func() error, error) {
	if cfg.Events.Backend != config.EventsBackendRedis {
		bus := memory.NewInMemoryEventBus(logger)
		return bus, bus.Close, nil
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	// Test Redis connection
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	bus := redisevents.NewPubSubEventBus(redisClient, logger)
	closeFn := func() error {
		if err := bus.Close(); err != nil {
			return err
		}
		return redisClient.Close()
	}

	return bus, closeFn, nil
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}

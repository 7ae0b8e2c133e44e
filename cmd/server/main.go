package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deskmap/internal/api"
	"deskmap/internal/backend"
	"deskmap/internal/config"
	"deskmap/internal/domain"
	"deskmap/internal/events"
	"deskmap/internal/logging"
	"deskmap/internal/metrics"
	"deskmap/internal/repository"
	"deskmap/internal/service"
	"deskmap/internal/sheets"
	"deskmap/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "server").Logger()

	plan, err := config.LoadFloorplan(cfg.Floorplan.Path)
	if err != nil {
		return fmt.Errorf("load floorplan: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	// Клиент бэкенда бронирования
	backendClient := backend.NewClient(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second, &logger)

	// Redis не обязателен: без него состояние живет в памяти процесса
	flowTTL := time.Duration(cfg.Booking.FlowTTLSeconds) * time.Second
	memoryRepo := repository.NewMemoryFlowRepository(flowTTL)

	var redisClient *redis.Client
	var flowRepo domain.FlowRepository = memoryRepo
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if err := repository.Ping(ctx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable at startup, continuing with failover")
		}
		redisRepo := repository.NewRedisFlowRepository(redisClient, flowTTL)
		flowRepo = repository.NewFailoverFlowRepository(redisRepo, memoryRepo, &logger)

		if cfg.Backend.CacheTTLSeconds > 0 {
			backendClient.UseRedisCache(redisClient, time.Duration(cfg.Backend.CacheTTLSeconds)*time.Second)
		}
		defer func() { _ = repository.Close(redisClient) }()
	}

	// Синхронизация с Google Sheets опциональна
	var sheetsService *sheets.Service
	if cfg.Google.GoogleCredentialsFile != "" && cfg.Google.BookingSpreadSheetID != "" {
		sheetsService, err = sheets.NewService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID)
		if err != nil {
			logger.Error().Err(err).Msg("Google Sheets init failed, sync disabled")
			sheetsService = nil
		} else if err := sheetsService.TestConnection(ctx); err != nil {
			logger.Warn().Err(err).Msg("Google Sheets connection test failed")
		}
	}

	eventBus := events.NewBus()

	var sync domain.BookingSync
	if sheetsService != nil {
		sync = sheetsService
	}
	refreshWorker := worker.NewRefreshWorker(backendClient, sync, redisClient, worker.RetryPolicy{}, &logger)
	refreshWorker.BindBus(eventBus)
	go refreshWorker.Start(ctx)

	// На старте нет сессии, от имени которой можно спросить бэкенд,
	// поэтому комнаты для валидации столов берутся из плана этажа
	flowService := service.NewFlowService(backendClient, flowRepo, eventBus, cfg.Booking.MaxAdvanceDays, &logger)
	deskService := service.NewDeskService(backendClient, eventBus, plan.Rooms, &logger)
	userService := service.NewUserService(backendClient, 5*time.Minute, &logger)

	httpServer := api.NewHTTPServer(cfg, plan, backendClient, flowService, deskService, userService, flowRepo, &logger)
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("HTTP server error")
			stop()
		}
	}()

	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	logger.Info().
		Int("http_port", cfg.HTTP.Port).
		Str("backend", cfg.Backend.BaseURL).
		Msg("deskmap started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("deskmap stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/idcard-backend/internal/config"
	"github.com/stemsi/idcard-backend/internal/database"
	"github.com/stemsi/idcard-backend/internal/events"
	"github.com/stemsi/idcard-backend/internal/handler"
	"github.com/stemsi/idcard-backend/internal/logger"
	"github.com/stemsi/idcard-backend/internal/notify"
	"github.com/stemsi/idcard-backend/internal/repository"
	"github.com/stemsi/idcard-backend/internal/repository/memory"
	"github.com/stemsi/idcard-backend/internal/router"
	"github.com/stemsi/idcard-backend/internal/service"
	"github.com/stemsi/idcard-backend/internal/validator"
	"github.com/stemsi/idcard-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("storage", cfg.StorageDriver).
		Str("notify", cfg.NotifyMode).
		Msg("Starting ID Card Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Initialize Stores ─────────────────────────────────────────────
	var (
		adminStore   service.AdminStore
		studentStore service.StudentStore
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		adminStore = memory.NewAdminStore()
		studentStore = memory.NewStudentStore()
	case config.StoragePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		adminStore = repository.NewAdminRepository(pool)
		studentStore = repository.NewStudentRepository(pool)
	default:
		log.Fatal().Str("driver", cfg.StorageDriver).Msg("Unknown STORAGE_DRIVER")
	}

	// ─── Connect to Redis (optional) ───────────────────────────────────
	var rdb *redis.Client
	if cfg.RedisEnabled() {
		var err error
		rdb, err = database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
	} else {
		log.Info().Msg("REDIS_URL not set, code queue and submission feed disabled")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	var sender service.CodeSender = notify.NewInBandSender(log)
	if cfg.NotifyMode == config.NotifyQueue {
		if rdb == nil {
			log.Fatal().Msg("NOTIFY_MODE=queue requires REDIS_URL")
		}
		sender = notify.NewQueueSender(rdb)
	}

	var (
		publisher service.EventPublisher
		feed      *handler.FeedHandler
	)
	if rdb != nil {
		redisEvents := events.NewRedisPublisher(rdb)
		publisher = redisEvents
		feed = handler.NewFeedHandler(redisEvents, log, cfg.AllowedOrigins)
	}

	authService := service.NewAuthService(cfg, adminStore, sender, log)
	studentService := service.NewStudentService(studentStore, publisher, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, log),
		Student: handler.NewStudentHandler(studentService, log),
		Feed:    feed,
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	if rdb != nil && cfg.NotifyMode == config.NotifyQueue {
		notificationWorker := worker.NewNotificationWorker(rdb, worker.NewLogDeliverer(log), log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			notificationWorker.Start(workerCtx)
		}()
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

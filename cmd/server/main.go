package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-exam-service/internal/config"
	"github.com/stemsi/exstem-exam-service/internal/database"
	"github.com/stemsi/exstem-exam-service/internal/events"
	"github.com/stemsi/exstem-exam-service/internal/handler"
	"github.com/stemsi/exstem-exam-service/internal/logger"
	"github.com/stemsi/exstem-exam-service/internal/metrics"
	"github.com/stemsi/exstem-exam-service/internal/repository"
	"github.com/stemsi/exstem-exam-service/internal/repository/memstore"
	"github.com/stemsi/exstem-exam-service/internal/repository/mongostore"
	"github.com/stemsi/exstem-exam-service/internal/router"
	"github.com/stemsi/exstem-exam-service/internal/service"
	"github.com/stemsi/exstem-exam-service/internal/validator"
	"github.com/stemsi/exstem-exam-service/internal/worker"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("db_driver", cfg.DBDriver).
		Msg("Starting ExStem Exam Service")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Storage ────────────────────────────────────────────
	checks := map[string]handler.HealthCheck{}
	stores, closeStores, err := openStores(ctx, cfg, log, checks)
	if err != nil {
		log.Fatal().Err(err).Str("db_driver", cfg.DBDriver).Msg("Failed to open storage")
	}
	defer closeStores()

	// ─── Event Bus ─────────────────────────────────────────────────────
	// With Redis, events are queued for the log worker and fanned out via
	// pub/sub. Without it, they are written straight to the store.
	var (
		bus        events.Bus
		rdb        *redis.Client
		queueDepth handler.QueueDepth
	)
	if cfg.RedisURL != "" {
		rdb, err = database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()

		bus = events.NewRedisBus(rdb, log)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		queueDepth = func(ctx context.Context) (int64, error) {
			return rdb.LLen(ctx, config.WorkerKey.PersistEventsQueue).Result()
		}
	} else {
		log.Warn().Msg("REDIS_URL not set; using in-process event bus")
		bus = events.NewLocalBus(stores.Events)
	}
	emitter := events.NewEmitter(bus, log)

	// ─── Metrics ───────────────────────────────────────────────────────
	m := metrics.New()

	// ─── Initialize Services ──────────────────────────────────────────
	examService := service.NewExamService(stores.Exams)
	assignmentService := service.NewAssignmentService(stores.Exams, stores.Assignments, stores.Students)
	resultService := service.NewResultService(stores.Exams, stores.Results)
	statusService := service.NewExamStatusService(stores)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:       handler.NewExamHandler(examService, statusService, emitter, m, log),
		Assignment: handler.NewAssignmentHandler(assignmentService, emitter, m, log),
		Result:     handler.NewResultHandler(resultService, emitter, m, log),
		Monitor:    handler.NewMonitorHandler(statusService, bus, m, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(cfg.DBDriver, checks, queueDepth, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	if rdb != nil {
		eventWorker := worker.NewEventLogWorker(rdb, stores.Events, cfg.EventBatchSize, cfg.EventFlushInterval, log)
		go func() {
			defer close(workerDone)
			eventWorker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg, log, m)

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

	// 2. Stop the event log worker and wait for it to drain its buffer.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Event log worker did not finish draining")
	}

	log.Info().Msg("Shutdown complete")
}

// openStores connects the configured storage driver and registers its health check.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger, checks map[string]handler.HealthCheck) (repository.Stores, func(), error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return repository.Stores{}, nil, err
		}
		checks["postgres"] = pool.Ping
		return repository.NewPostgresStores(pool), pool.Close, nil

	case config.DriverMongo:
		client, db, err := database.NewMongoDatabase(ctx, cfg, log)
		if err != nil {
			return repository.Stores{}, nil, err
		}
		closeClient := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Error().Err(err).Msg("MongoDB disconnect error")
			}
		}
		store := mongostore.New(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			closeClient()
			return repository.Stores{}, nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
		return store.Stores(), closeClient, nil

	case config.DriverMemory:
		log.Warn().Msg("Using in-memory storage; data is lost on restart")
		return memstore.New().Stores(), func() {}, nil

	default:
		return repository.Stores{}, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

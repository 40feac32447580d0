package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/allocator"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/config"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/database"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/handler"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/logger"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/repository"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/router"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/service"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/validator"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/worker"
	"github.com/rs/zerolog"
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
		Msg("Starting lvnplus API")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	planRepo := repository.NewTestPlanRepository(pool)
	executionRepo := repository.NewExecutionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	events := service.NewEventBus(rdb)
	alloc := allocator.New(questionRepo, nil)

	authService := service.NewAuthService(cfg, rdb, userRepo, log)
	userService := service.NewUserService(userRepo, cfg.BcryptCost, log)
	subjectService := service.NewSubjectService(subjectRepo, log)
	questionService := service.NewQuestionService(questionRepo, subjectRepo, log)
	planService := service.NewTestPlanService(
		planRepo, executionRepo, subjectRepo, userRepo, alloc, events,
		cfg.DefaultDifficultyTiers, log,
	)
	executionService := service.NewExecutionService(executionRepo, events, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, log),
		Subject:   handler.NewSubjectHandler(subjectService, log),
		Question:  handler.NewQuestionHandler(questionService, log),
		TestPlan:  handler.NewTestPlanHandler(planService, log),
		Execution: handler.NewExecutionHandler(executionService, log),
		AdminUser: handler.NewAdminUserHandler(userService, log),
		WS:        handler.NewWSHandler(events, planService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ──────────────────────────────────────
	if cfg.StaleSweepInterval > 0 {
		staleWorker := worker.NewStaleWorker(executionService, cfg.StaleExecutionAfter, cfg.StaleSweepInterval, 100, log)
		go staleWorker.Start(ctx)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg)

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stops the rate limiter sweep and the workers.
	cancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

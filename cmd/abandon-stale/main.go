package main

import (
	"context"
	"flag"
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/config"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/database"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/logger"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/repository"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/service"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/worker"
)

// abandon-stale moves IN_PROGRESS and PAUSED executions that nobody has
// touched for STALE_EXECUTION_HOURS to ABANDONED. Meant to run from cron
// when the server runs with STALE_SWEEP_MINUTES=0.
func main() {
	batch := flag.Int("batch", 100, "executions abandoned per round")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Watchers are told about abandoned executions when Redis is up; the
	// sweep itself does not depend on it.
	var events service.EventPublisher
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, abandoning without events")
	} else {
		defer rdb.Close()
		events = service.NewEventBus(rdb)
	}

	executionService := service.NewExecutionService(repository.NewExecutionRepository(pool), events, log)
	sweeper := worker.NewStaleWorker(executionService, cfg.StaleExecutionAfter, 0, *batch, log)

	total, err := sweeper.Sweep(ctx)
	if err != nil {
		log.Fatal().Err(err).Int("abandoned", total).Msg("Sweep failed")
	}

	log.Info().
		Int("abandoned", total).
		Dur("after", cfg.StaleExecutionAfter).
		Msg("Stale executions abandoned")
}

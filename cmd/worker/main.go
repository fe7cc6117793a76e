package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatlead_backend/internal/leads/analysis"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/scoring"
	"chatlead_backend/internal/leads/service"
	"chatlead_backend/internal/scheduler"
	"chatlead_backend/platform/config"
	"chatlead_backend/platform/db"
	"chatlead_backend/platform/events"
	"chatlead_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	scoringCfg, err := scoring.Load(cfg.GetScoringConfigPath())
	if err != nil {
		log.Error("failed to load scoring config", "error", err)
		panic("failed to load scoring config: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	repo := repository.New(pool)
	analyzer := analysis.NewAnalyzer(scoringCfg.Keywords)
	svc := service.New(repo, analyzer, scoringCfg, eventBus, log)

	worker, err := scheduler.NewWorker(cfg, svc, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer client.Close()

	// Periodically sweep stale leads for rescoring.
	go runSweepLoop(ctx, cfg, client, log)

	workerErr := make(chan error, 1)
	go func() {
		workerErr <- worker.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping worker")
		worker.Shutdown()
	case err := <-workerErr:
		if err != nil {
			log.Error("worker error", "error", err)
			panic("worker error: " + err.Error())
		}
	}
}

func runSweepLoop(ctx context.Context, cfg *config.Config, client *scheduler.Client, log *logger.Logger) {
	interval := cfg.RescoreInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := client.EnqueueStaleSweep(ctx, scheduler.RescoreStaleLeadsPayload{
				StaleAfter: cfg.RescoreStaleAfter.String(),
			})
			if err != nil {
				log.Error("failed to enqueue stale sweep", "error", err)
				continue
			}
			log.Info("stale lead sweep enqueued", "staleAfter", cfg.RescoreStaleAfter)
		}
	}
}

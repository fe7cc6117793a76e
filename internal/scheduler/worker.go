package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"chatlead_backend/internal/leads/service"
	"chatlead_backend/platform/config"
	"chatlead_backend/platform/logger"
)

// defaultStaleAfter is used when a sweep payload carries no cutoff.
const defaultStaleAfter = 24 * time.Hour

// defaultSweepBatch bounds how many leads one sweep rescans.
const defaultSweepBatch = 200

// Rescorer is the slice of the leads service the worker needs.
type Rescorer interface {
	RescoreStale(ctx context.Context, staleAfter time.Duration, limit int) (int, error)
	Qualify(ctx context.Context, input service.QualifyInput) (*service.QualifyOutcome, error)
}

// Worker consumes background tasks from the queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

// NewWorker creates the asynq worker with all task handlers registered.
func NewWorker(cfg config.SchedulerConfig, rescorer Rescorer, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{queue: 1},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		log:    log,
	}
	w.mux.HandleFunc(TaskRescoreStaleLeads, w.handleStaleSweep(rescorer))
	w.mux.HandleFunc(TaskRescoreLead, w.handleLeadRescore(rescorer))

	return w, nil
}

// Run starts processing tasks and blocks until the server stops.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleStaleSweep(rescorer Rescorer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		payload, err := ParseRescoreStaleLeadsPayload(task)
		if err != nil {
			return fmt.Errorf("parse stale sweep payload: %w", err)
		}

		staleAfter := defaultStaleAfter
		if payload.StaleAfter != "" {
			if parsed, err := time.ParseDuration(payload.StaleAfter); err == nil {
				staleAfter = parsed
			}
		}
		batch := payload.BatchSize
		if batch <= 0 {
			batch = defaultSweepBatch
		}

		rescored, err := rescorer.RescoreStale(ctx, staleAfter, batch)
		if err != nil {
			return err
		}
		w.log.Info("stale lead sweep complete", "rescored", rescored)
		return nil
	}
}

func (w *Worker) handleLeadRescore(rescorer Rescorer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		payload, err := ParseRescoreLeadPayload(task)
		if err != nil {
			return fmt.Errorf("parse rescore payload: %w", err)
		}

		tenantID, err := uuid.Parse(payload.TenantID)
		if err != nil {
			return fmt.Errorf("parse tenant id: %w", err)
		}

		_, err = rescorer.Qualify(ctx, service.QualifyInput{
			TenantID:       tenantID,
			ConversationID: payload.ConversationID,
			ChatbotID:      payload.ChatbotID,
		})
		return err
	}
}

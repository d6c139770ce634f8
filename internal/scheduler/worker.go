package scheduler

import (
	"context"
	"fmt"
	"time"

	"realestate_crm_backend/internal/leads/service"
	"realestate_crm_backend/platform/config"
	"realestate_crm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server          *asynq.Server
	mux             *asynq.ServeMux
	svc             *service.Service
	stalenessWindow time.Duration
	log             *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, svc *service.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:          server,
		mux:             mux,
		svc:             svc,
		stalenessWindow: cfg.GetScoreStalenessWindow(),
		log:             log,
	}

	mux.HandleFunc(TaskScoreRefresh, w.handleScoreRefresh)

	return w, nil
}

func (w *Worker) handleScoreRefresh(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseScoreRefreshPayload(task)
	if err != nil {
		return err
	}
	if payload.BatchSize < 1 {
		payload.BatchSize = defaultRefreshBatchSize
	}

	cutoff := time.Now().UTC().Add(-w.stalenessWindow)
	refreshed, err := w.svc.RefreshStaleScores(ctx, cutoff, payload.BatchSize)
	if err != nil {
		w.log.Error("score refresh run failed", "error", err, "refreshed", refreshed)
		return err
	}

	w.log.Info("score refresh run complete", "refreshed", refreshed, "cutoff", cutoff)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

package camunda

import (
	"context"
	"time"

	"ichra-workers/internal/common/config"
	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/common/metrics"
	"ichra-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every worker in internal/workers.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Instrument wraps h so each job updates the active gauge and duration metrics.
func Instrument(taskType string, h JobHandler, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			elapsed := time.Since(start)
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			obs.RecordJobProcessed(context.Background(), taskType, "handled")
			obs.RecordJobDuration(context.Background(), taskType, elapsed, "handled")
		}()

		h.Handle(client, job)
	}
}

// StartWorker opens a job worker for taskType using the per-worker settings.
func StartWorker(
	client zbc.Client,
	taskType string,
	cfg config.WorkerConfig,
	h JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) worker.JobWorker {
	maxJobs := cfg.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = 5
	}
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	w := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, h, obs)).
		MaxJobsActive(maxJobs).
		Timeout(timeout).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": maxJobs,
		"timeout":       timeout.String(),
	})
	return w
}

// internal/workers/recommendation/select-recommendations/handler.go
package selectrecommendations

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"ichra-workers/internal/common/errors"
	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/common/metrics"
	"ichra-workers/internal/recommendation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "select-recommendations"
)

type Handler struct {
	config       *Config
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, errors.NewInvalidInputError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// execute ranks the scored plans and explains the qualified ones. No
// qualified plan is a normal outcome with an empty list.
func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.Profile == nil {
		return nil, errors.NewInvalidInputError(stderrors.New("profile is required"))
	}

	recs := recommendation.Select(*input.Profile, input.ScoredPlans)

	outcome := metrics.OutcomeRecommended
	if len(recs) == 0 {
		outcome = metrics.OutcomeNoQualifiedPlan
	}
	metrics.RecommendationRuns.WithLabelValues(outcome).Inc()

	h.logger.Info("recommendations selected", map[string]interface{}{
		"candidates":          len(input.ScoredPlans),
		"recommendationCount": len(recs),
		"outcome":             outcome,
	})

	return &Output{
		Recommendations:     recs,
		RecommendationCount: len(recs),
		HasRecommendations:  len(recs) > 0,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

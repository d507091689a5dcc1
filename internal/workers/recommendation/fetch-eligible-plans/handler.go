// internal/workers/recommendation/fetch-eligible-plans/handler.go
package fetcheligibleplans

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"ichra-workers/internal/catalog"
	"ichra-workers/internal/common/errors"
	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/common/metrics"
	"ichra-workers/internal/recommendation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "fetch-eligible-plans"
)

type Handler struct {
	config       *Config
	plans        recommendation.PlanRepository
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, plans recommendation.PlanRepository, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		plans:        plans,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	state, zipCode := input.location()
	state = strings.ToUpper(strings.TrimSpace(state))
	zipCode = strings.TrimSpace(zipCode)
	if state == "" || zipCode == "" {
		return nil, errors.NewInvalidInputError(stderrors.New("state and zipCode are required"))
	}

	plans, err := h.plans.FindActivePlans(ctx, state, zipCode)
	if err != nil {
		return nil, errors.CatalogError(catalog.BackendName(h.plans), err)
	}

	if len(plans) == 0 {
		metrics.RecommendationRuns.WithLabelValues(metrics.OutcomeNoEligiblePlans).Inc()
		return nil, errors.NewNoEligiblePlansError(state, zipCode)
	}

	h.logger.Info("eligible plans fetched", map[string]interface{}{
		"state":     state,
		"zipCode":   zipCode,
		"planCount": len(plans),
		"backend":   catalog.BackendName(h.plans),
	})

	return &Output{
		Plans:     plans,
		PlanCount: len(plans),
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

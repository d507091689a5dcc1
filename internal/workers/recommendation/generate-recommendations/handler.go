// internal/workers/recommendation/generate-recommendations/handler.go
package generaterecommendations

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"ichra-workers/internal/catalog"
	"ichra-workers/internal/common/errors"
	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/common/metrics"
	"ichra-workers/internal/common/validation"
	"ichra-workers/internal/recommendation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-recommendations"
)

type Handler struct {
	config       *Config
	recommender  *recommendation.Recommender
	backend      string
	validator    *validation.StructValidator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, plans recommendation.PlanRepository, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		recommender:  recommendation.NewRecommender(plans, log),
		backend:      catalog.BackendName(plans),
		validator:    validation.NewStructValidator(),
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
	if input.Profile == nil {
		return nil, errors.NewInvalidInputError(stderrors.New("profile is required"))
	}

	check, err := h.validator.Struct(*input.Profile)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !check.Valid {
		return nil, errors.NewProfileValidationFailedError(check.Summary())
	}

	set, err := h.recommender.Run(ctx, *input.Profile)
	if err != nil {
		var noPlans *recommendation.NoEligiblePlansError
		if stderrors.As(err, &noPlans) {
			return nil, errors.NewNoEligiblePlansError(noPlans.State, noPlans.ZipCode)
		}
		return nil, errors.CatalogError(h.backend, err)
	}

	return &Output{
		RecommendationID:    set.ID,
		Recommendations:     set.Recommendations,
		RecommendationCount: len(set.Recommendations),
		HasRecommendations:  len(set.Recommendations) > 0,
		EligiblePlanCount:   set.EligiblePlanCount,
		GeneratedAt:         set.GeneratedAt.Format(time.RFC3339),
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

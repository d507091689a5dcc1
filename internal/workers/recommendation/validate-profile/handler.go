// internal/workers/recommendation/validate-profile/handler.go
package validateprofile

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"ichra-workers/internal/common/errors"
	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/common/metrics"
	"ichra-workers/internal/common/validation"
	"ichra-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-profile"
)

type Handler struct {
	config       *Config
	validator    *validation.StructValidator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	raw := bytes.TrimSpace(input.Profile)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.NewInvalidInputError(stderrors.New("profile is required"))
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Errorf("profile must be a JSON object: %w", err))
	}

	// A failed decode leaves profile nil, which ValidateProfile reports as invalid.
	var profile *models.Profile
	var decoded models.Profile
	if err := json.Unmarshal(raw, &decoded); err == nil {
		profile = &decoded
	}

	result, err := validation.ValidateProfile(doc, profile, h.validator)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	output := &Output{
		IsValid:          result.Valid,
		ValidationErrors: result.Errors,
	}
	if output.ValidationErrors == nil {
		output.ValidationErrors = []validation.ValidationError{}
	}

	if result.Valid && profile != nil {
		output.Profile = profile
		h.logger.Info("profile valid", map[string]interface{}{
			"state":   profile.State,
			"zipCode": profile.ZipCode,
		})
	} else {
		h.logger.Warn("profile invalid", map[string]interface{}{
			"errorCount": len(result.Errors),
			"summary":    result.Summary(),
		})
	}

	return output, nil
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

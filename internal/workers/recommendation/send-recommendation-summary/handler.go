// internal/workers/recommendation/send-recommendation-summary/handler.go
package sendrecommendationsummary

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	awsclients "ichra-workers/internal/common/aws"
	"ichra-workers/internal/common/errors"
	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/common/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-recommendation-summary"
)

type Handler struct {
	config       *Config
	sesClient    awsclients.EmailSender
	snsClient    awsclients.SMSPublisher
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, sesClient awsclients.EmailSender, snsClient awsclients.SMSPublisher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sesClient:    sesClient,
		snsClient:    snsClient,
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

// execute delivers the summary on every enabled channel. A partial delivery
// completes with status failed; when every attempted channel fails the job
// is failed so the broker retries it.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		Channels:       []string{},
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	var attempted int
	var lastErr error
	lastChannel := ""

	if h.config.EmailEnabled && input.RecipientEmail != "" {
		attempted++
		if err := h.sendEmail(ctx, input.RecipientEmail, emailSubject, renderEmailBody(input)); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":          err,
				"notificationId": output.NotificationID,
			})
			lastErr, lastChannel = err, ChannelEmail
		} else {
			output.Channels = append(output.Channels, ChannelEmail)
		}
	}

	if h.config.SMSEnabled && input.SendSMS && input.RecipientPhone != "" {
		attempted++
		if err := h.sendSMS(ctx, input.RecipientPhone, renderSMS(input)); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":          err,
				"notificationId": output.NotificationID,
			})
			lastErr, lastChannel = err, ChannelSMS
		} else {
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	switch {
	case attempted == 0:
		h.logger.Info("no notification channel enabled", map[string]interface{}{
			"notificationId": output.NotificationID,
		})
	case len(output.Channels) == 0:
		return nil, errors.NewNotificationSendFailedError(lastChannel, lastErr)
	case lastErr != nil:
		output.Status = StatusFailed
	default:
		output.Status = StatusSent
	}

	h.logger.Info("recommendation summary processed", map[string]interface{}{
		"notificationId":      output.NotificationID,
		"status":              output.Status,
		"channels":            output.Channels,
		"recommendationCount": len(input.Recommendations),
	})

	return output, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	if h.sesClient == nil {
		return stderrors.New("SES client not configured")
	}
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	if h.snsClient == nil {
		return stderrors.New("SNS client not configured")
	}
	params := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if h.config.SenderID != "" {
		params.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(h.config.SenderID),
			},
		}
	}
	_, err := h.snsClient.Publish(ctx, params)
	return err
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

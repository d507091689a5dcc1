// internal/workers/recommendation/send-recommendation-summary/models.go
package sendrecommendationsummary

import "ichra-workers/internal/models"

type Input struct {
	RecipientEmail  string                  `json:"recipientEmail"`
	RecipientPhone  string                  `json:"recipientPhone,omitempty"`
	EmployeeName    string                  `json:"employeeName,omitempty"`
	Recommendations []models.Recommendation `json:"recommendations"`
	SendSMS         bool                    `json:"sendSms,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "disabled"
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// internal/workers/recommendation/generate-recommendations/models.go
package generaterecommendations

import "ichra-workers/internal/models"

type Input struct {
	Profile *models.Profile `json:"profile"`
}

type Output struct {
	RecommendationID    string                  `json:"recommendationId"`
	Recommendations     []models.Recommendation `json:"recommendations"`
	RecommendationCount int                     `json:"recommendationCount"`
	HasRecommendations  bool                    `json:"hasRecommendations"`
	EligiblePlanCount   int                     `json:"eligiblePlanCount"`
	GeneratedAt         string                  `json:"generatedAt"` // ISO 8601
}

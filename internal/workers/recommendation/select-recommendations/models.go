// internal/workers/recommendation/select-recommendations/models.go
package selectrecommendations

import "ichra-workers/internal/models"

type Input struct {
	Profile     *models.Profile     `json:"profile"`
	ScoredPlans []models.ScoredPlan `json:"scoredPlans"`
}

type Output struct {
	Recommendations     []models.Recommendation `json:"recommendations"`
	RecommendationCount int                     `json:"recommendationCount"`
	HasRecommendations  bool                    `json:"hasRecommendations"`
}

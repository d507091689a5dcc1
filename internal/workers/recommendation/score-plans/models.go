// internal/workers/recommendation/score-plans/models.go
package scoreplans

import "ichra-workers/internal/models"

type Input struct {
	Profile *models.Profile `json:"profile"`
	Plans   []models.Plan   `json:"plans"`
}

type Output struct {
	ScoredPlans []models.ScoredPlan `json:"scoredPlans"`
	PlanCount   int                 `json:"planCount"`
}

// internal/workers/recommendation/select-recommendations/handler_test.go
package selectrecommendations

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ichra-workers/internal/common/errors"
	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func testProfile() *models.Profile {
	return &models.Profile{
		Age:            35,
		ZipCode:        "10001",
		State:          "NY",
		CoverageType:   models.CoverageIndividual,
		ICHRAAllowance: 500,
		MedicalNeeds:   models.NeedsRoutine,
		RiskTolerance:  models.RiskModerate,
		Priorities:     models.Priorities{Cost: 3, Coverage: 3, Network: 3, Flexibility: 3},
	}
}

func scored(id string, total float64) models.ScoredPlan {
	return models.ScoredPlan{
		Plan: models.Plan{
			ID:             id,
			CarrierName:    "Empire Health",
			PlanName:       "Plan " + id,
			PlanType:       models.PlanTypePPO,
			MetalTier:      models.MetalSilver,
			State:          "NY",
			ZipCodes:       []string{"10001"},
			MonthlyPremium: 450,
			Deductible:     1000,
			OOPMaximum:     4000,
			NetworkSize:    models.NetworkLarge,
			IsActive:       true,
		},
		Scores:     models.SubScores{Affordability: total, Coverage: total, Network: total, PlanType: total, OOPProtection: total},
		TotalScore: total,
	}
}

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, logger.NewTestLogger(t))
}

func planIDs(recs []models.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.PlanID
	}
	return out
}

// ==========================
// Execute
// ==========================

func TestExecute_SelectsTopTwoQualified(t *testing.T) {
	tests := []struct {
		name     string
		plans    []models.ScoredPlan
		expected []string
	}{
		{
			name:     "descending top two",
			plans:    []models.ScoredPlan{scored("a", 71), scored("b", 95), scored("c", 88), scored("d", 40)},
			expected: []string{"b", "c"},
		},
		{
			name:     "threshold inclusive",
			plans:    []models.ScoredPlan{scored("a", 69.99), scored("b", 70)},
			expected: []string{"b"},
		},
		{
			name:     "ties keep input order",
			plans:    []models.ScoredPlan{scored("first", 80), scored("second", 80), scored("third", 80)},
			expected: []string{"first", "second"},
		},
		{
			name:     "none qualified",
			plans:    []models.ScoredPlan{scored("a", 50), scored("b", 69)},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newTestHandler(t).Execute(context.Background(), &Input{
				Profile:     testProfile(),
				ScoredPlans: tt.plans,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expected, planIDs(out.Recommendations))
			assert.Equal(t, len(tt.expected), out.RecommendationCount)
			assert.Equal(t, len(tt.expected) > 0, out.HasRecommendations)
			for i, r := range out.Recommendations {
				assert.Equal(t, i+1, r.Rank)
				assert.Len(t, r.TradeOffs, 1)
			}
		})
	}
}

func TestExecute_EmptyListSerializesAsArray(t *testing.T) {
	out, err := newTestHandler(t).Execute(context.Background(), &Input{Profile: testProfile()})
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"recommendations":[],"recommendationCount":0,"hasRecommendations":false}`, string(data))
}

func TestExecute_MissingProfile(t *testing.T) {
	_, err := newTestHandler(t).Execute(context.Background(), &Input{ScoredPlans: []models.ScoredPlan{scored("a", 90)}})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.FromError(err).Code)
}

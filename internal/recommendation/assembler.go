package recommendation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/common/metrics"
	"ichra-workers/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "ichra-workers/recommendation"

// PlanRepository is the plan catalog. Implementations return only active
// plans of the given state whose service area includes zipCode.
type PlanRepository interface {
	FindActivePlans(ctx context.Context, state, zipCode string) ([]models.Plan, error)
}

// NoEligiblePlansError reports a location with no plans at all. It is an
// expected outcome, distinct from plans existing but none qualifying.
type NoEligiblePlansError struct {
	State   string
	ZipCode string
}

func (e *NoEligiblePlansError) Error() string {
	return fmt.Sprintf("no eligible plans for state %s, zip %s", e.State, e.ZipCode)
}

// Recommender turns a profile into ranked recommendations using a plan catalog.
type Recommender struct {
	plans  PlanRepository
	logger logger.Logger
	tracer trace.Tracer
	now    func() time.Time
	newID  func() string
}

func NewRecommender(plans PlanRepository, log logger.Logger) *Recommender {
	return &Recommender{
		plans:  plans,
		logger: log.WithFields(map[string]interface{}{"component": "recommender"}),
		tracer: otel.Tracer(tracerName),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

// Recommend returns at most MaxRecommendations qualified plans, best first.
// An empty list means plans exist but none qualified; a location without any
// plan yields *NoEligiblePlansError.
func (r *Recommender) Recommend(ctx context.Context, profile models.Profile) ([]models.Recommendation, error) {
	set, err := r.Run(ctx, profile)
	if err != nil {
		return nil, err
	}
	return set.Recommendations, nil
}

// Run is Recommend wrapped in a RecommendationSet envelope.
func (r *Recommender) Run(ctx context.Context, profile models.Profile) (*models.RecommendationSet, error) {
	ctx, span := r.tracer.Start(ctx, "recommendation.run", trace.WithAttributes(
		attribute.String("profile.state", profile.State),
		attribute.String("profile.zip", profile.ZipCode),
	))
	defer span.End()

	plans, err := r.plans.FindActivePlans(ctx, profile.State, profile.ZipCode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog lookup failed")
		return nil, fmt.Errorf("find active plans: %w", err)
	}

	if len(plans) == 0 {
		metrics.RecommendationRuns.WithLabelValues(metrics.OutcomeNoEligiblePlans).Inc()
		r.logger.Info("no eligible plans", map[string]interface{}{
			"state":   profile.State,
			"zipCode": profile.ZipCode,
		})
		return nil, &NoEligiblePlansError{State: profile.State, ZipCode: profile.ZipCode}
	}

	_, scoreSpan := r.tracer.Start(ctx, "recommendation.score")
	scored := ScoreAll(profile, plans)
	scoreSpan.SetAttributes(attribute.Int("plans.scored", len(scored)))
	scoreSpan.End()

	metrics.PlansScored.Add(float64(len(scored)))
	for _, sp := range scored {
		metrics.PlanTotalScore.Observe(sp.TotalScore)
	}

	recs := Select(profile, scored)

	outcome := metrics.OutcomeRecommended
	if len(recs) == 0 {
		outcome = metrics.OutcomeNoQualifiedPlan
	}
	metrics.RecommendationRuns.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.Int("recommendations", len(recs)))

	set := &models.RecommendationSet{
		ID:                r.newID(),
		State:             profile.State,
		ZipCode:           profile.ZipCode,
		EligiblePlanCount: len(plans),
		Recommendations:   recs,
		GeneratedAt:       r.now(),
	}

	r.logger.Info("recommendation run completed", map[string]interface{}{
		"recommendationId":    set.ID,
		"eligiblePlans":       len(plans),
		"recommendationCount": len(recs),
		"outcome":             outcome,
	})

	return set, nil
}

// Rank sorts by total score, highest first. Plans with equal scores keep
// their relative input order. The input slice is not modified.
func Rank(scored []models.ScoredPlan) []models.ScoredPlan {
	ranked := make([]models.ScoredPlan, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})
	return ranked
}

// Qualified ranks the plans and keeps the top MaxRecommendations scoring at
// least QualifiedThreshold.
func Qualified(scored []models.ScoredPlan) []models.ScoredPlan {
	var qualified []models.ScoredPlan
	for _, sp := range Rank(scored) {
		if sp.TotalScore < QualifiedThreshold {
			continue
		}
		qualified = append(qualified, sp)
		if len(qualified) == MaxRecommendations {
			break
		}
	}
	return qualified
}

// Select builds explained recommendations, ranked from 1, for the qualified plans.
func Select(profile models.Profile, scored []models.ScoredPlan) []models.Recommendation {
	qualified := Qualified(scored)

	recs := make([]models.Recommendation, 0, len(qualified))
	for i, sp := range qualified {
		var next *models.ScoredPlan
		if i+1 < len(qualified) {
			next = &qualified[i+1]
		}
		recs = append(recs, NewRecommendation(i+1, sp, Explain(sp, profile, next)))
	}
	return recs
}

func NewRecommendation(rank int, sp models.ScoredPlan, exp Explanation) models.Recommendation {
	return models.Recommendation{
		Rank:           rank,
		PlanID:         sp.Plan.ID,
		CarrierName:    sp.Plan.CarrierName,
		PlanName:       sp.Plan.PlanName,
		PlanType:       sp.Plan.PlanType,
		MetalTier:      sp.Plan.MetalTier,
		TotalScore:     sp.TotalScore,
		Scores:         sp.Scores,
		Reasoning:      exp.Reasoning,
		KeyBenefits:    exp.KeyBenefits,
		TradeOffs:      exp.TradeOffs,
		BudgetAnalysis: exp.BudgetAnalysis,
	}
}

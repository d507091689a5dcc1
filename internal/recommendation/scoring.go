// Package recommendation scores insurance plans against an employee profile,
// explains the strongest matches and assembles the final ranked list.
package recommendation

import (
	"math"

	"ichra-workers/internal/models"
)

// Sub-score weights. They sum to 1.0; QualifiedThreshold is calibrated
// against them, so changing one means revisiting the other.
const (
	WeightAffordability = 0.30
	WeightCoverage      = 0.25
	WeightNetwork       = 0.20
	WeightPlanType      = 0.15
	WeightOOPProtection = 0.10

	QualifiedThreshold = 70.0
	MaxRecommendations = 2
)

const (
	annualCostCushion    = 3000.0
	chronicConditionCost = 1000.0
	moderateNeedsBase    = 1500.0
	frequentNeedsPadding = 2000.0
)

type tier struct {
	limit float64
	score float64
}

// tieredScore returns the score of the first tier whose limit is >= value.
func tieredScore(value float64, tiers []tier, fallback float64) float64 {
	for _, t := range tiers {
		if value <= t.limit {
			return t.score
		}
	}
	return fallback
}

var (
	oopMaxTiers     = []tier{{5000, 100}, {7000, 80}, {9000, 60}}
	deductibleTiers = []tier{{1000, 100}, {2500, 80}, {5000, 60}, {7000, 40}}
	avgCopayTiers   = []tier{{30, 100}, {50, 80}, {70, 60}}
	rxCopayTiers    = []tier{{10, 100}, {20, 80}, {35, 60}}
	specialistTiers = []tier{{40, 100}, {60, 75}, {80, 50}}
)

var metalTierScores = map[models.MetalTier]float64{
	models.MetalPlatinum:     100,
	models.MetalGold:         85,
	models.MetalSilver:       70,
	models.MetalBronze:       55,
	models.MetalCatastrophic: 40,
}

var networkTypeScores = map[models.PlanType]float64{
	models.PlanTypePPO: 100,
	models.PlanTypeEPO: 80,
	models.PlanTypePOS: 70,
	models.PlanTypeHMO: 60,
}

var networkSizeScores = map[models.NetworkSize]float64{
	models.NetworkLarge:  100,
	models.NetworkMedium: 80,
	models.NetworkSmall:  60,
}

// planTypeSimilarity is keyed by the preferred type. Rows are symmetric
// where both types have a row; POS has no row and falls back to 50.
var planTypeSimilarity = map[models.PlanType]map[models.PlanType]float64{
	models.PlanTypePPO: {
		models.PlanTypeEPO:  70,
		models.PlanTypePOS:  75,
		models.PlanTypeHMO:  50,
		models.PlanTypeHDHP: 60,
	},
	models.PlanTypeHMO: {
		models.PlanTypeEPO:  75,
		models.PlanTypePOS:  70,
		models.PlanTypePPO:  50,
		models.PlanTypeHDHP: 50,
	},
	models.PlanTypeEPO: {
		models.PlanTypePPO:  70,
		models.PlanTypeHMO:  75,
		models.PlanTypePOS:  65,
		models.PlanTypeHDHP: 55,
	},
	models.PlanTypeHDHP: {
		models.PlanTypePPO: 60,
		models.PlanTypeHMO: 50,
		models.PlanTypeEPO: 55,
		models.PlanTypePOS: 50,
	},
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// Score computes the five sub-scores and the weighted total for one plan.
func Score(profile models.Profile, plan models.Plan) models.ScoredPlan {
	scores := models.SubScores{
		Affordability: AffordabilityScore(profile, plan),
		Coverage:      CoverageScore(profile, plan),
		Network:       NetworkScore(profile, plan),
		PlanType:      PlanTypeScore(profile, plan),
		OOPProtection: OOPProtectionScore(profile, plan),
	}
	return models.ScoredPlan{
		Plan:       plan,
		Scores:     scores,
		TotalScore: TotalScore(scores),
	}
}

// ScoreAll scores every plan, preserving input order.
func ScoreAll(profile models.Profile, plans []models.Plan) []models.ScoredPlan {
	scored := make([]models.ScoredPlan, 0, len(plans))
	for _, plan := range plans {
		scored = append(scored, Score(profile, plan))
	}
	return scored
}

func TotalScore(s models.SubScores) float64 {
	return clamp(s.Affordability*WeightAffordability +
		s.Coverage*WeightCoverage +
		s.Network*WeightNetwork +
		s.PlanType*WeightPlanType +
		s.OOPProtection*WeightOOPProtection)
}

// AffordabilityScore averages premium fit and projected annual cost fit.
func AffordabilityScore(profile models.Profile, plan models.Plan) float64 {
	return clamp(PremiumFitScore(profile, plan)*0.5 + AnnualCostScore(profile, plan)*0.5)
}

// PremiumFitScore compares the monthly premium with the ICHRA allowance
// plus the employee's budget flexibility.
func PremiumFitScore(profile models.Profile, plan models.Plan) float64 {
	premium := plan.MonthlyPremium
	allowance := profile.ICHRAAllowance
	flex := profile.BudgetFlexibility

	if premium <= allowance {
		return 100
	}
	if flex > 0 && premium <= allowance+flex {
		return clamp(100 - ((premium-allowance)/flex)*50)
	}

	budget := allowance + flex
	if budget <= 0 {
		return 0
	}
	return clamp(50 - ((premium-allowance-flex)/budget)*100)
}

// AnnualCostScore measures premiums plus expected usage against a yearly ceiling.
func AnnualCostScore(profile models.Profile, plan models.Plan) float64 {
	total := plan.MonthlyPremium*12 + EstimateAnnualUsage(profile, plan)
	ceiling := profile.MaxMonthlySpend()*12 + annualCostCushion
	if total <= ceiling {
		return 100
	}
	return clamp(100 - (total/ceiling-1)*100)
}

// EstimateAnnualUsage projects yearly out-of-pocket spend for the profile's
// care pattern, capped at the plan's out-of-pocket maximum.
func EstimateAnnualUsage(profile models.Profile, plan models.Plan) float64 {
	rx := 12 * float64(profile.PrescriptionCount) * plan.GenericRxCopay

	var usage float64
	switch profile.MedicalNeeds {
	case models.NeedsRoutine:
		usage = 3*plan.PCPCopay + rx
	case models.NeedsModerate:
		usage = 5*plan.PCPCopay + 2*plan.SpecialistCopay + rx + moderateNeedsBase
	case models.NeedsFrequent:
		usage = math.Min(plan.Deductible+frequentNeedsPadding, plan.OOPMaximum)
	}

	usage += float64(len(profile.ChronicConditions)) * chronicConditionCost
	return math.Max(0, math.Min(usage, plan.OOPMaximum))
}

// CoverageScore weighs metal tier fit, prescription cost and specialist access.
func CoverageScore(profile models.Profile, plan models.Plan) float64 {
	tierScore, ok := metalTierScores[plan.MetalTier]
	if !ok {
		tierScore = 50
	}
	tierScore *= needsAdjustment(profile.MedicalNeeds, plan.MetalTier)

	rxScore := 100.0
	if profile.PrescriptionCount > 0 {
		rxScore = tieredScore(plan.GenericRxCopay, rxCopayTiers, 40)
	}

	specialistScore := 100.0
	if len(profile.ChronicConditions) > 0 {
		specialistScore = tieredScore(plan.SpecialistCopay, specialistTiers, 25)
	}

	return clamp(tierScore*0.4 + rxScore*0.3 + specialistScore*0.3)
}

func needsAdjustment(needs models.MedicalNeeds, metal models.MetalTier) float64 {
	switch {
	case needs == models.NeedsFrequent && (metal == models.MetalBronze || metal == models.MetalCatastrophic):
		return 0.7
	case needs == models.NeedsRoutine && (metal == models.MetalPlatinum || metal == models.MetalGold):
		return 0.9
	default:
		return 1.0
	}
}

// NetworkScore combines preferred-provider coverage with network breadth.
func NetworkScore(profile models.Profile, plan models.Plan) float64 {
	typeScore, ok := networkTypeScores[plan.NetworkType]
	if !ok {
		typeScore = 50
	}
	sizeScore, ok := networkSizeScores[plan.NetworkSize]
	if !ok {
		sizeScore = 70
	}
	access := (typeScore + sizeScore) / 2

	return clamp(ProviderMatchRate(profile, plan)*0.6 + access*0.4)
}

// ProviderMatchRate is the share of preferred providers in the plan network,
// as a percentage. A profile without preferences matches fully.
func ProviderMatchRate(profile models.Profile, plan models.Plan) float64 {
	if len(profile.PreferredProviders) == 0 {
		return 100
	}
	matched := MatchedProviders(profile, plan)
	return float64(len(matched)) / float64(len(profile.PreferredProviders)) * 100
}

// MatchedProviders lists the profile's preferred providers that the plan includes,
// in the profile's order.
func MatchedProviders(profile models.Profile, plan models.Plan) []string {
	var matched []string
	for _, name := range profile.PreferredProviders {
		if plan.HasProvider(name) {
			matched = append(matched, name)
		}
	}
	return matched
}

// PlanTypeScore weighs plan-type preference and risk-tolerance alignment.
func PlanTypeScore(profile models.Profile, plan models.Plan) float64 {
	return clamp(planTypePreferenceScore(profile.PlanTypePreference, plan.PlanType)*0.6 +
		riskAlignmentScore(profile.RiskTolerance, plan)*0.4)
}

func planTypePreferenceScore(preferred, actual models.PlanType) float64 {
	if preferred == "" {
		return 50
	}
	if preferred == actual {
		return 100
	}
	if row, ok := planTypeSimilarity[preferred]; ok {
		if score, ok := row[actual]; ok {
			return score
		}
	}
	return 50
}

func riskAlignmentScore(risk models.RiskTolerance, plan models.Plan) float64 {
	deductible := plan.Deductible

	switch risk {
	case models.RiskLow:
		switch {
		case deductible < 1500:
			return 100
		case deductible < 3000:
			return 70
		default:
			return 40
		}
	case models.RiskHigh:
		switch {
		case plan.HSAEligible && deductible >= 1500:
			return 100
		case deductible >= 1500:
			return 80
		default:
			return 60
		}
	default:
		if deductible >= 1000 && deductible <= 3000 {
			return 100
		}
		return 70
	}
}

// OOPProtectionScore rates the plan's worst-case exposure and everyday copays.
func OOPProtectionScore(profile models.Profile, plan models.Plan) float64 {
	oopScore := tieredScore(plan.OOPMaximum, oopMaxTiers, 40)
	if !profile.IsIndividualCoverage() {
		oopScore *= 0.9
	}

	deductibleScore := tieredScore(plan.Deductible, deductibleTiers, 20)

	avgCopay := (plan.PCPCopay + plan.SpecialistCopay + plan.UrgentCareCopay) / 3
	copayScore := tieredScore(avgCopay, avgCopayTiers, 40)

	return clamp(oopScore*0.5 + deductibleScore*0.3 + copayScore*0.2)
}

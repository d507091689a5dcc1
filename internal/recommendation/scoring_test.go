package recommendation

import (
	"testing"

	"ichra-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Fixtures
// ==========================

func nyProfile() models.Profile {
	return models.Profile{
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

func nyPlan() models.Plan {
	return models.Plan{
		ID:             "plan-ny-silver-ppo",
		CarrierName:    "Empire Health",
		PlanName:       "Silver PPO 1000",
		PlanType:       models.PlanTypePPO,
		MetalTier:      models.MetalSilver,
		State:          "NY",
		ZipCodes:       []string{"10001", "10002"},
		MonthlyPremium: 450,
		Deductible:     1000,
		OOPMaximum:     4000,
		NetworkType:    models.PlanTypePPO,
		NetworkSize:    models.NetworkLarge,
		IsActive:       true,
	}
}

// ==========================
// Worked Example
// ==========================

func TestScore_NewYorkExample(t *testing.T) {
	profile := nyProfile()
	plan := nyPlan()

	assert.Equal(t, 100.0, PremiumFitScore(profile, plan))

	scored := Score(profile, plan)

	assert.InDelta(t, 100.0, scored.Scores.Affordability, 1e-9)
	assert.InDelta(t, 88.0, scored.Scores.Coverage, 1e-9)
	assert.InDelta(t, 100.0, scored.Scores.Network, 1e-9)
	assert.InDelta(t, 70.0, scored.Scores.PlanType, 1e-9)
	assert.InDelta(t, 100.0, scored.Scores.OOPProtection, 1e-9)

	expected := scored.Scores.Affordability*WeightAffordability +
		scored.Scores.Coverage*WeightCoverage +
		scored.Scores.Network*WeightNetwork +
		scored.Scores.PlanType*WeightPlanType +
		scored.Scores.OOPProtection*WeightOOPProtection
	assert.InDelta(t, expected, scored.TotalScore, 1e-9)
	assert.InDelta(t, 92.5, scored.TotalScore, 1e-9)
	assert.Equal(t, plan.ID, scored.Plan.ID)
}

func TestWeights_SumToOne(t *testing.T) {
	sum := WeightAffordability + WeightCoverage + WeightNetwork + WeightPlanType + WeightOOPProtection
	assert.InDelta(t, 1.0, sum, 1e-12)
}

// ==========================
// Affordability
// ==========================

func TestPremiumFitScore(t *testing.T) {
	tests := []struct {
		name      string
		allowance float64
		flex      float64
		premium   float64
		expected  float64
	}{
		{"premium equal to allowance", 400, 0, 400, 100},
		{"premium under allowance", 400, 50, 120, 100},
		{"within flexibility", 400, 100, 450, 75},
		{"at flexibility limit", 400, 100, 500, 50},
		{"beyond flexibility", 400, 100, 600, 30},
		{"zero flexibility goes straight to exceeds branch", 400, 0, 500, 25},
		{"far over budget floors at zero", 400, 0, 1000, 0},
		{"zero allowance and flexibility", 0, 0, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := nyProfile()
			profile.ICHRAAllowance = tt.allowance
			profile.BudgetFlexibility = tt.flex
			plan := nyPlan()
			plan.MonthlyPremium = tt.premium

			assert.InDelta(t, tt.expected, PremiumFitScore(profile, plan), 1e-9)
		})
	}
}

func TestPremiumFitScore_CoveredPremiumAlwaysFull(t *testing.T) {
	for _, allowance := range []float64{0, 1, 250, 500, 1200} {
		for _, ratio := range []float64{0, 0.25, 0.5, 0.99, 1} {
			profile := nyProfile()
			profile.ICHRAAllowance = allowance
			plan := nyPlan()
			plan.MonthlyPremium = allowance * ratio

			assert.Equal(t, 100.0, PremiumFitScore(profile, plan), "allowance=%v premium=%v", allowance, plan.MonthlyPremium)
		}
	}
}

func TestAnnualCostScore(t *testing.T) {
	profile := nyProfile()
	profile.ICHRAAllowance = 400

	plan := nyPlan()
	plan.MonthlyPremium = 500
	assert.Equal(t, 100.0, AnnualCostScore(profile, plan), "6000 against a 7800 ceiling")

	plan.MonthlyPremium = 800
	// total 9600 against ceiling 7800
	assert.InDelta(t, 100-(9600.0/7800.0-1)*100, AnnualCostScore(profile, plan), 1e-9)

	plan.MonthlyPremium = 5000
	assert.Equal(t, 0.0, AnnualCostScore(profile, plan))
}

func TestEstimateAnnualUsage(t *testing.T) {
	tests := []struct {
		name     string
		needs    models.MedicalNeeds
		rxCount  int
		chronic  []string
		plan     func(p *models.Plan)
		expected float64
	}{
		{
			name:    "routine visits and prescriptions",
			needs:   models.NeedsRoutine,
			rxCount: 2,
			plan: func(p *models.Plan) {
				p.PCPCopay = 25
				p.GenericRxCopay = 10
				p.OOPMaximum = 8000
			},
			expected: 3*25 + 12*2*10,
		},
		{
			name:    "moderate adds specialist visits and base spend",
			needs:   models.NeedsModerate,
			rxCount: 1,
			plan: func(p *models.Plan) {
				p.PCPCopay = 25
				p.SpecialistCopay = 50
				p.GenericRxCopay = 10
				p.OOPMaximum = 8000
			},
			expected: 5*25 + 2*50 + 12*10 + 1500,
		},
		{
			name:  "frequent uses deductible plus padding",
			needs: models.NeedsFrequent,
			plan: func(p *models.Plan) {
				p.Deductible = 3000
				p.OOPMaximum = 8000
			},
			expected: 5000,
		},
		{
			name:    "chronic conditions add a fixed amount each",
			needs:   models.NeedsFrequent,
			chronic: []string{"diabetes", "asthma"},
			plan: func(p *models.Plan) {
				p.Deductible = 3000
				p.OOPMaximum = 8000
			},
			expected: 7000,
		},
		{
			name:    "capped at out-of-pocket maximum",
			needs:   models.NeedsFrequent,
			chronic: []string{"diabetes"},
			plan: func(p *models.Plan) {
				p.Deductible = 7000
				p.OOPMaximum = 8000
			},
			expected: 8000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := nyProfile()
			profile.MedicalNeeds = tt.needs
			profile.PrescriptionCount = tt.rxCount
			profile.ChronicConditions = tt.chronic
			plan := nyPlan()
			tt.plan(&plan)

			assert.InDelta(t, tt.expected, EstimateAnnualUsage(profile, plan), 1e-9)
		})
	}
}

// ==========================
// Coverage
// ==========================

func TestCoverageScore(t *testing.T) {
	tests := []struct {
		name     string
		needs    models.MedicalNeeds
		tier     models.MetalTier
		rxCount  int
		rxCopay  float64
		chronic  []string
		specCopy float64
		expected float64
	}{
		{
			name:     "frequent needs on bronze is penalized",
			needs:    models.NeedsFrequent,
			tier:     models.MetalBronze,
			rxCount:  1,
			rxCopay:  15,
			chronic:  []string{"copd"},
			specCopy: 70,
			expected: 55*0.7*0.4 + 80*0.3 + 50*0.3,
		},
		{
			name:     "routine needs on gold is slightly discounted",
			needs:    models.NeedsRoutine,
			tier:     models.MetalGold,
			expected: 85*0.9*0.4 + 30 + 30,
		},
		{
			name:     "unknown tier uses neutral base",
			needs:    models.NeedsModerate,
			tier:     "Diamond",
			expected: 50*0.4 + 30 + 30,
		},
		{
			name:     "expensive prescriptions and specialists",
			needs:    models.NeedsModerate,
			tier:     models.MetalPlatinum,
			rxCount:  3,
			rxCopay:  50,
			chronic:  []string{"arthritis"},
			specCopy: 90,
			expected: 100*0.4 + 40*0.3 + 25*0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := nyProfile()
			profile.MedicalNeeds = tt.needs
			profile.PrescriptionCount = tt.rxCount
			profile.ChronicConditions = tt.chronic
			plan := nyPlan()
			plan.MetalTier = tt.tier
			plan.GenericRxCopay = tt.rxCopay
			plan.SpecialistCopay = tt.specCopy

			assert.InDelta(t, tt.expected, CoverageScore(profile, plan), 1e-9)
		})
	}
}

// ==========================
// Network
// ==========================

func TestNetworkScore(t *testing.T) {
	profile := nyProfile()
	profile.PreferredProviders = []string{"Mount Sinai", "NYU Langone"}

	plan := nyPlan()
	plan.Providers = []string{" mount sinai ", "Lenox Hill"}
	plan.NetworkType = models.PlanTypeHMO
	plan.NetworkSize = models.NetworkSmall

	assert.InDelta(t, 50.0, ProviderMatchRate(profile, plan), 1e-9)
	assert.Equal(t, []string{"Mount Sinai"}, MatchedProviders(profile, plan))
	assert.InDelta(t, 50*0.6+60*0.4, NetworkScore(profile, plan), 1e-9)
}

func TestNetworkScore_NoPreferencesAndUnknownNetwork(t *testing.T) {
	profile := nyProfile()
	plan := nyPlan()
	plan.NetworkType = "Tiered"
	plan.NetworkSize = ""

	assert.Equal(t, 100.0, ProviderMatchRate(profile, plan))
	assert.InDelta(t, 100*0.6+(50+70)/2.0*0.4, NetworkScore(profile, plan), 1e-9)
}

// ==========================
// Plan Type Fit
// ==========================

func TestPlanTypeScore(t *testing.T) {
	tests := []struct {
		name       string
		preference models.PlanType
		planType   models.PlanType
		risk       models.RiskTolerance
		deductible float64
		hsa        bool
		expected   float64
	}{
		{"exact match, moderate in band", models.PlanTypePPO, models.PlanTypePPO, models.RiskModerate, 2000, false, 100*0.6 + 100*0.4},
		{"no preference, moderate out of band", "", models.PlanTypePPO, models.RiskModerate, 500, false, 50*0.6 + 70*0.4},
		{"ppo preference on hmo, low risk mid deductible", models.PlanTypePPO, models.PlanTypeHMO, models.RiskLow, 2000, false, 50*0.6 + 70*0.4},
		{"ppo preference on pos", models.PlanTypePPO, models.PlanTypePOS, models.RiskLow, 1000, false, 75*0.6 + 100*0.4},
		{"ppo preference on epo, low risk high deductible", models.PlanTypePPO, models.PlanTypeEPO, models.RiskLow, 3000, false, 70*0.6 + 40*0.4},
		{"hmo preference is symmetric with ppo", models.PlanTypeHMO, models.PlanTypePPO, models.RiskHigh, 500, false, 50*0.6 + 60*0.4},
		{"hdhp preference on hsa plan, high risk", models.PlanTypeHDHP, models.PlanTypeHDHP, models.RiskHigh, 3000, true, 100*0.6 + 100*0.4},
		{"epo preference on hdhp without hsa", models.PlanTypeEPO, models.PlanTypeHDHP, models.RiskHigh, 3000, false, 55*0.6 + 80*0.4},
		{"pos preference has no similarity row", models.PlanTypePOS, models.PlanTypePPO, models.RiskModerate, 1000, false, 50*0.6 + 100*0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := nyProfile()
			profile.PlanTypePreference = tt.preference
			profile.RiskTolerance = tt.risk
			plan := nyPlan()
			plan.PlanType = tt.planType
			plan.Deductible = tt.deductible
			plan.HSAEligible = tt.hsa

			assert.InDelta(t, tt.expected, PlanTypeScore(profile, plan), 1e-9)
		})
	}
}

// ==========================
// Out-of-Pocket Protection
// ==========================

func TestOOPProtectionScore(t *testing.T) {
	profile := nyProfile()
	profile.CoverageType = models.CoverageFamily

	plan := nyPlan()
	plan.OOPMaximum = 6000
	plan.Deductible = 3000
	plan.PCPCopay = 40
	plan.SpecialistCopay = 60
	plan.UrgentCareCopay = 80

	assert.InDelta(t, 80*0.9*0.5+60*0.3+60*0.2, OOPProtectionScore(profile, plan), 1e-9)

	profile.CoverageType = models.CoverageIndividual
	plan.OOPMaximum = 9500
	plan.Deductible = 8000
	plan.PCPCopay, plan.SpecialistCopay, plan.UrgentCareCopay = 100, 100, 100
	assert.InDelta(t, 40*0.5+20*0.3+40*0.2, OOPProtectionScore(profile, plan), 1e-9)
}

// ==========================
// Bounds
// ==========================

func TestScore_AllScoresWithinBounds(t *testing.T) {
	needs := []models.MedicalNeeds{models.NeedsRoutine, models.NeedsModerate, models.NeedsFrequent}
	risks := []models.RiskTolerance{models.RiskLow, models.RiskModerate, models.RiskHigh}
	tiers := []models.MetalTier{models.MetalPlatinum, models.MetalGold, models.MetalSilver, models.MetalBronze, models.MetalCatastrophic, "Unknown"}
	premiums := []float64{0, 150, 450, 900, 2500}
	allowances := []float64{0, 300, 800}

	for _, n := range needs {
		for _, r := range risks {
			for _, tier := range tiers {
				for _, premium := range premiums {
					for _, allowance := range allowances {
						profile := nyProfile()
						profile.MedicalNeeds = n
						profile.RiskTolerance = r
						profile.ICHRAAllowance = allowance
						profile.PrescriptionCount = 4
						profile.ChronicConditions = []string{"a", "b", "c"}
						profile.PreferredProviders = []string{"Dr. Lee"}
						profile.CoverageType = models.CoverageFamily

						plan := nyPlan()
						plan.MetalTier = tier
						plan.MonthlyPremium = premium
						plan.Deductible = premium * 10
						plan.OOPMaximum = premium * 15
						plan.GenericRxCopay = premium / 10
						plan.SpecialistCopay = premium / 5

						s := Score(profile, plan)
						for name, v := range map[string]float64{
							"affordability": s.Scores.Affordability,
							"coverage":      s.Scores.Coverage,
							"network":       s.Scores.Network,
							"planType":      s.Scores.PlanType,
							"oopProtection": s.Scores.OOPProtection,
							"total":         s.TotalScore,
						} {
							assert.GreaterOrEqual(t, v, 0.0, name)
							assert.LessOrEqual(t, v, 100.0, name)
						}
					}
				}
			}
		}
	}
}

func TestScoreAll_PreservesOrder(t *testing.T) {
	a, b, c := nyPlan(), nyPlan(), nyPlan()
	a.ID, b.ID, c.ID = "a", "b", "c"
	b.MonthlyPremium = 900

	scored := ScoreAll(nyProfile(), []models.Plan{a, b, c})

	assert.Len(t, scored, 3)
	assert.Equal(t, "a", scored[0].Plan.ID)
	assert.Equal(t, "b", scored[1].Plan.ID)
	assert.Equal(t, "c", scored[2].Plan.ID)
}

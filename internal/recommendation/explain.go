package recommendation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"ichra-workers/internal/models"
)

const (
	leadSentenceThreshold       = 85.0
	supportingSentenceThreshold = 75.0
	maxSupportingSentences      = 3
	lowDeductibleLimit          = 2000.0
)

// ScoreKind tags one of the five sub-scores.
type ScoreKind int

const (
	KindAffordability ScoreKind = iota
	KindCoverage
	KindNetwork
	KindPlanType
	KindOOPProtection
)

func (k ScoreKind) String() string {
	switch k {
	case KindAffordability:
		return "affordability"
	case KindCoverage:
		return "coverage"
	case KindNetwork:
		return "network"
	case KindPlanType:
		return "planType"
	case KindOOPProtection:
		return "oopProtection"
	default:
		return "unknown"
	}
}

type RankedScore struct {
	Kind  ScoreKind
	Value float64
}

// RankSubScores orders the sub-scores highest first. Equal values keep
// the declaration order of ScoreKind.
func RankSubScores(s models.SubScores) []RankedScore {
	ranked := []RankedScore{
		{KindAffordability, s.Affordability},
		{KindCoverage, s.Coverage},
		{KindNetwork, s.Network},
		{KindPlanType, s.PlanType},
		{KindOOPProtection, s.OOPProtection},
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})
	return ranked
}

// Explanation is the human-readable part of a recommendation.
type Explanation struct {
	Reasoning      string
	KeyBenefits    []models.KeyBenefit
	TradeOffs      []models.TradeOff
	BudgetAnalysis models.BudgetAnalysis
}

// Explain derives reasoning, benefits, trade-offs and a budget projection
// for a scored plan. next is the following plan in the ranked list, or nil.
func Explain(scored models.ScoredPlan, profile models.Profile, next *models.ScoredPlan) Explanation {
	return Explanation{
		Reasoning:      Reasoning(scored, profile),
		KeyBenefits:    KeyBenefits(scored.Plan, profile),
		TradeOffs:      TradeOffs(scored, next),
		BudgetAnalysis: Budget(profile, scored.Plan),
	}
}

// Reasoning builds a short narrative from the strongest sub-scores.
// It is empty when no sub-score clears the sentence thresholds.
func Reasoning(scored models.ScoredPlan, profile models.Profile) string {
	ranked := RankSubScores(scored.Scores)
	plan := scored.Plan

	var sentences []string
	if lead := leadSentence(ranked[0], plan, profile); lead != "" {
		sentences = append(sentences, lead)
	}

	for _, rs := range ranked[1 : 1+maxSupportingSentences] {
		if rs.Value < supportingSentenceThreshold {
			continue
		}
		if sentence := supportingSentence(rs.Kind, plan, profile); sentence != "" {
			sentences = append(sentences, sentence)
		}
	}

	return strings.Join(sentences, " ")
}

func leadSentence(top RankedScore, plan models.Plan, profile models.Profile) string {
	if top.Value < leadSentenceThreshold {
		return ""
	}

	switch top.Kind {
	case KindAffordability:
		if plan.MonthlyPremium <= profile.ICHRAAllowance {
			return fmt.Sprintf("This plan is fully covered by your ICHRA allowance, leaving %s per month unused.",
				formatUSD(profile.ICHRAAllowance-plan.MonthlyPremium))
		}
		return fmt.Sprintf("Your ICHRA allowance covers most of this plan; you would contribute %s per month.",
			formatUSD(plan.MonthlyPremium-profile.ICHRAAllowance))
	case KindNetwork:
		if len(profile.PreferredProviders) == 0 {
			return ""
		}
		matched := MatchedProviders(profile, plan)
		if len(matched) == 0 {
			return ""
		}
		return fmt.Sprintf("Your preferred providers are in network: %s.", strings.Join(matched, ", "))
	case KindCoverage:
		return fmt.Sprintf("Its %s metal tier matches your %s medical needs.", plan.MetalTier, profile.MedicalNeeds)
	}
	return ""
}

// supportingSentence only has text for plan type and OOP protection.
func supportingSentence(kind ScoreKind, plan models.Plan, profile models.Profile) string {
	switch kind {
	case KindPlanType:
		return fmt.Sprintf("The %s plan design suits your %s risk tolerance.", plan.PlanType, profile.RiskTolerance)
	case KindOOPProtection:
		return fmt.Sprintf("Your out-of-pocket costs are capped at %s per year.", formatUSD(plan.OOPMaximum))
	}
	return ""
}

// KeyBenefits lists the plan's headline features in a fixed order.
func KeyBenefits(plan models.Plan, profile models.Profile) []models.KeyBenefit {
	benefits := []models.KeyBenefit{
		costBenefit(plan, profile),
		{
			Category:    "Coverage",
			Description: fmt.Sprintf("%s %s plan", plan.MetalTier, plan.PlanType),
			Highlight:   plan.MetalTier == models.MetalGold || plan.MetalTier == models.MetalPlatinum,
		},
		{
			Category:    "Deductible",
			Description: fmt.Sprintf("%s annual deductible", formatUSD(plan.Deductible)),
			Highlight:   plan.Deductible <= lowDeductibleLimit,
		},
	}

	if plan.NetworkSize == models.NetworkLarge {
		benefits = append(benefits, models.KeyBenefit{
			Category:    "Network",
			Description: fmt.Sprintf("Large %s provider network", plan.NetworkType),
			Highlight:   true,
		})
	}

	if plan.HSAEligible {
		benefits = append(benefits, models.KeyBenefit{
			Category:    "Tax Savings",
			Description: "HSA-eligible: set aside pre-tax dollars for medical expenses",
			Highlight:   profile.RiskTolerance == models.RiskHigh,
		})
	}

	return benefits
}

func costBenefit(plan models.Plan, profile models.Profile) models.KeyBenefit {
	covered := plan.MonthlyPremium <= profile.ICHRAAllowance
	desc := fmt.Sprintf("%s monthly premium, fully covered by your ICHRA allowance", formatUSD(plan.MonthlyPremium))
	if !covered {
		desc = fmt.Sprintf("%s monthly premium, %s per month after your ICHRA allowance",
			formatUSD(plan.MonthlyPremium), formatUSD(plan.MonthlyPremium-profile.ICHRAAllowance))
	}
	return models.KeyBenefit{Category: "Cost", Description: desc, Highlight: covered}
}

// TradeOffs returns the generic premium versus out-of-pocket trade-off.
// next is accepted so comparative trade-offs can be added without changing callers;
// it does not influence the result today.
func TradeOffs(_ models.ScoredPlan, _ *models.ScoredPlan) []models.TradeOff {
	return []models.TradeOff{{
		Gain:      "Lower monthly premium",
		Sacrifice: "Potentially higher out-of-pocket costs if you need frequent care",
	}}
}

// Budget projects yearly costs. EmployeeAnnualCost plus twelve months of
// allowance always equals TotalAnnualCost.
func Budget(profile models.Profile, plan models.Plan) models.BudgetAnalysis {
	premium := plan.MonthlyPremium
	allowance := profile.ICHRAAllowance
	oop := EstimateAnnualUsage(profile, plan)
	total := premium*12 + oop

	percent := 0.0
	if total > 0 {
		percent = (allowance * 12 / total) * 100
	}

	return models.BudgetAnalysis{
		MonthlyPremium:              premium,
		ICHRAAllowance:              allowance,
		EmployeeMonthlyContribution: math.Max(0, premium-allowance),
		EstimatedAnnualOOP:          oop,
		TotalAnnualCost:             total,
		EmployeeAnnualCost:          total - allowance*12,
		PercentCoveredByICHRA:       strconv.FormatFloat(percent, 'f', 1, 64),
	}
}

// formatUSD renders whole dollars with thousands separators, and cents only when present.
func formatUSD(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	cents := int64(math.Round(v * 100))
	dollars := strconv.FormatInt(cents/100, 10)
	for i := len(dollars) - 3; i > 0; i -= 3 {
		dollars = dollars[:i] + "," + dollars[i:]
	}

	if rem := cents % 100; rem != 0 {
		return fmt.Sprintf("%s$%s.%02d", sign, dollars, rem)
	}
	return sign + "$" + dollars
}

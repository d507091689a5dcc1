package models

import "time"

// SubScores holds the five independent plan scores, each in [0,100].
type SubScores struct {
	Affordability float64 `json:"affordability"`
	Coverage      float64 `json:"coverage"`
	Network       float64 `json:"network"`
	PlanType      float64 `json:"planType"`
	OOPProtection float64 `json:"oopProtection"`
}

// ScoredPlan pairs a plan with its scores for a single profile.
type ScoredPlan struct {
	Plan       Plan      `json:"plan"`
	Scores     SubScores `json:"scores"`
	TotalScore float64   `json:"totalScore"`
}

type KeyBenefit struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Highlight   bool   `json:"highlight"`
}

type TradeOff struct {
	Gain      string `json:"gain"`
	Sacrifice string `json:"sacrifice"`
}

// BudgetAnalysis projects the yearly cost split between employer and employee.
type BudgetAnalysis struct {
	MonthlyPremium              float64 `json:"monthlyPremium"`
	ICHRAAllowance              float64 `json:"ichraAllowance"`
	EmployeeMonthlyContribution float64 `json:"employeeMonthlyContribution"`
	EstimatedAnnualOOP          float64 `json:"estimatedAnnualOop"`
	TotalAnnualCost             float64 `json:"totalAnnualCost"`
	EmployeeAnnualCost          float64 `json:"employeeAnnualCost"`
	PercentCoveredByICHRA       string  `json:"percentCoveredByIchra"`
}

// Recommendation is one ranked plan with its explanation.
type Recommendation struct {
	Rank           int            `json:"rank"`
	PlanID         string         `json:"planId"`
	CarrierName    string         `json:"carrierName"`
	PlanName       string         `json:"planName"`
	PlanType       PlanType       `json:"planType"`
	MetalTier      MetalTier      `json:"metalTier"`
	TotalScore     float64        `json:"totalScore"`
	Scores         SubScores      `json:"scores"`
	Reasoning      string         `json:"reasoning"`
	KeyBenefits    []KeyBenefit   `json:"keyBenefits"`
	TradeOffs      []TradeOff     `json:"tradeOffs,omitempty"`
	BudgetAnalysis BudgetAnalysis `json:"budgetAnalysis"`
}

// RecommendationSet is the envelope produced by one recommendation run.
type RecommendationSet struct {
	ID                string           `json:"recommendationId"`
	State             string           `json:"state"`
	ZipCode           string           `json:"zipCode"`
	EligiblePlanCount int              `json:"eligiblePlanCount"`
	Recommendations   []Recommendation `json:"recommendations"`
	GeneratedAt       time.Time        `json:"generatedAt"`
}

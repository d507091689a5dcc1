package models

// CoverageType describes who is enrolled on the plan.
type CoverageType string

const (
	CoverageIndividual         CoverageType = "individual"
	CoverageIndividualSpouse   CoverageType = "individual_spouse"
	CoverageIndividualChildren CoverageType = "individual_children"
	CoverageFamily             CoverageType = "family"
)

type HealthStatus string

const (
	HealthExcellent HealthStatus = "excellent"
	HealthGood      HealthStatus = "good"
	HealthFair      HealthStatus = "fair"
	HealthPoor      HealthStatus = "poor"
)

// MedicalNeeds is the expected care utilization tier.
type MedicalNeeds string

const (
	NeedsRoutine  MedicalNeeds = "routine"
	NeedsModerate MedicalNeeds = "moderate"
	NeedsFrequent MedicalNeeds = "frequent"
)

type RiskTolerance string

const (
	RiskLow      RiskTolerance = "low"
	RiskModerate RiskTolerance = "moderate"
	RiskHigh     RiskTolerance = "high"
)

// Priorities weighs what the employee cares about, each on a 1-5 scale.
type Priorities struct {
	Cost        int `json:"cost" validate:"min=1,max=5"`
	Coverage    int `json:"coverage" validate:"min=1,max=5"`
	Network     int `json:"network" validate:"min=1,max=5"`
	Flexibility int `json:"flexibility" validate:"min=1,max=5"`
}

// Profile is the household/employee input to a recommendation run.
// Monetary amounts are US dollars; allowance and flexibility are monthly.
type Profile struct {
	Age                int           `json:"age" validate:"min=18,max=100"`
	ZipCode            string        `json:"zipCode" validate:"required,numeric,len=5"`
	State              string        `json:"state" validate:"required,len=2,uppercase"`
	CoverageType       CoverageType  `json:"coverageType" validate:"required,oneof=individual individual_spouse individual_children family"`
	DependentCount     int           `json:"dependentCount" validate:"min=0"`
	DependentAges      []int         `json:"dependentAges,omitempty" validate:"omitempty,dive,min=0,max=120"`
	ICHRAAllowance     float64       `json:"ichraAllowance" validate:"min=0"`
	BudgetFlexibility  float64       `json:"budgetFlexibility,omitempty" validate:"min=0"`
	AnnualIncome       *float64      `json:"annualIncome,omitempty" validate:"omitempty,min=0"`
	HealthStatus       HealthStatus  `json:"healthStatus,omitempty" validate:"omitempty,oneof=excellent good fair poor"`
	MedicalNeeds       MedicalNeeds  `json:"medicalNeeds" validate:"required,oneof=routine moderate frequent"`
	ChronicConditions  []string      `json:"chronicConditions,omitempty"`
	PrescriptionCount  int           `json:"prescriptionCount" validate:"min=0"`
	PreferredProviders []string      `json:"preferredProviders,omitempty"`
	PlanTypePreference PlanType      `json:"planTypePreference,omitempty" validate:"omitempty,oneof=HMO PPO EPO HDHP POS"`
	RiskTolerance      RiskTolerance `json:"riskTolerance" validate:"required,oneof=low moderate high"`
	Priorities         Priorities    `json:"priorities"`
}

// IsIndividualCoverage reports whether only the employee is enrolled.
func (p Profile) IsIndividualCoverage() bool {
	return p.CoverageType == "" || p.CoverageType == CoverageIndividual
}

// MaxMonthlySpend is the allowance plus whatever the employee is willing to add.
func (p Profile) MaxMonthlySpend() float64 {
	return p.ICHRAAllowance + p.BudgetFlexibility
}

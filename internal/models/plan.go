package models

import "strings"

type PlanType string

const (
	PlanTypeHMO  PlanType = "HMO"
	PlanTypePPO  PlanType = "PPO"
	PlanTypeEPO  PlanType = "EPO"
	PlanTypeHDHP PlanType = "HDHP"
	PlanTypePOS  PlanType = "POS"
)

type MetalTier string

const (
	MetalPlatinum     MetalTier = "Platinum"
	MetalGold         MetalTier = "Gold"
	MetalSilver       MetalTier = "Silver"
	MetalBronze       MetalTier = "Bronze"
	MetalCatastrophic MetalTier = "Catastrophic"
)

type NetworkSize string

const (
	NetworkSmall  NetworkSize = "Small"
	NetworkMedium NetworkSize = "Medium"
	NetworkLarge  NetworkSize = "Large"
)

// Plan is a catalog entry. It is read-only for the recommendation engine.
type Plan struct {
	ID              string      `json:"id"`
	CarrierName     string      `json:"carrierName"`
	PlanName        string      `json:"planName"`
	PlanType        PlanType    `json:"planType"`
	MetalTier       MetalTier   `json:"metalTier"`
	State           string      `json:"state"`
	ZipCodes        []string    `json:"zipCodes"`
	MonthlyPremium  float64     `json:"monthlyPremium"`
	Deductible      float64     `json:"deductible"`
	OOPMaximum      float64     `json:"oopMaximum"`
	PCPCopay        float64     `json:"pcpCopay"`
	SpecialistCopay float64     `json:"specialistCopay"`
	ERCopay         float64     `json:"erCopay"`
	UrgentCareCopay float64     `json:"urgentCareCopay"`
	GenericRxCopay  float64     `json:"genericRxCopay"`
	NetworkType     PlanType    `json:"networkType"`
	NetworkSize     NetworkSize `json:"networkSize"`
	HSAEligible     bool        `json:"hsaEligible"`
	Providers       []string    `json:"providers,omitempty"`
	IsActive        bool        `json:"isActive"`
}

// ServesZip reports whether zip is in the plan's service area.
func (p Plan) ServesZip(zip string) bool {
	for _, z := range p.ZipCodes {
		if z == zip {
			return true
		}
	}
	return false
}

// IsCandidateFor reports whether the plan may be offered at the given location.
func (p Plan) IsCandidateFor(state, zip string) bool {
	return p.IsActive && strings.EqualFold(p.State, state) && p.ServesZip(zip)
}

// HasProvider matches a provider name case-insensitively, ignoring surrounding whitespace.
func (p Plan) HasProvider(name string) bool {
	want := strings.TrimSpace(name)
	for _, provider := range p.Providers {
		if strings.EqualFold(strings.TrimSpace(provider), want) {
			return true
		}
	}
	return false
}

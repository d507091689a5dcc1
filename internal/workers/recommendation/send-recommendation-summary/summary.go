// internal/workers/recommendation/send-recommendation-summary/summary.go
package sendrecommendationsummary

import (
	"fmt"
	"strings"

	"ichra-workers/internal/models"
)

const emailSubject = "Your ICHRA health plan recommendations"

const noMatchMessage = "We could not find a plan that is a strong match for your profile. " +
	"A benefits advisor will follow up with other options."

func greeting(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return "Hi " + name + ","
	}
	return "Hello,"
}

// recommendationLine reads like "1. Empire Health Silver PPO 1000 (score 92.5), $0.00/month after your allowance".
func recommendationLine(r models.Recommendation) string {
	return fmt.Sprintf("%d. %s %s (score %.1f), $%.2f/month after your allowance",
		r.Rank, r.CarrierName, r.PlanName, r.TotalScore, r.BudgetAnalysis.EmployeeMonthlyContribution)
}

func renderEmailBody(input *Input) string {
	var b strings.Builder
	b.WriteString(greeting(input.EmployeeName))
	b.WriteString("\n\n")

	if len(input.Recommendations) == 0 {
		b.WriteString(noMatchMessage)
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("Based on your profile, we recommend:\n\n")
	for _, r := range input.Recommendations {
		b.WriteString(recommendationLine(r))
		b.WriteString("\n")
		if r.Reasoning != "" {
			b.WriteString("   ")
			b.WriteString(r.Reasoning)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderSMS(input *Input) string {
	if len(input.Recommendations) == 0 {
		return "No strong ICHRA plan match found. A benefits advisor will follow up."
	}
	top := input.Recommendations[0]
	return fmt.Sprintf("Your top ICHRA plan: %s %s (score %.1f). Check your email for details.",
		top.CarrierName, top.PlanName, top.TotalScore)
}

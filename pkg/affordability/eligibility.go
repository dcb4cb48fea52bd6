package affordability

import "fmt"

// ReasonIncomeTooLow is reported when obligations consume the whole
// affordable share of income.
const ReasonIncomeTooLow = "income too low relative to existing obligations"

// Decision is the eligibility verdict for a solved Result.
type Decision struct {
	Qualifies bool     `json:"qualifies"`
	Reasons   []string `json:"reasons"`
}

// Evaluate applies the qualification rules to result. Failing an eligibility
// rule is a business outcome, not an error: every failing rule contributes a
// reason.
func Evaluate(result Result, minLoanThreshold float64) Decision {
	decision := Decision{Qualifies: true, Reasons: []string{}}

	if result.MaxMonthlyCapacity <= 0 {
		decision.Qualifies = false
		decision.Reasons = append(decision.Reasons, ReasonIncomeTooLow)
	} else if result.MaxPrincipal < minLoanThreshold {
		decision.Qualifies = false
		decision.Reasons = append(decision.Reasons, fmt.Sprintf(
			"maximum financeable principal %.2f is below the minimum loan threshold %.2f",
			result.MaxPrincipal, minLoanThreshold))
	}

	return decision
}

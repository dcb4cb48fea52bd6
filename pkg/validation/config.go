package validation

import (
	"fmt"

	"github.com/iwvelando/rent-finance/pkg/financing"
)

// Monthly rates above this are almost always an annual percentage typed into
// a monthly fraction field.
const suspiciousMonthlyRate = 0.25

// PolicyConfig is the subset of a policy set that can be sanity-checked.
type PolicyConfig struct {
	Name               string
	DepositCap         float64
	MinLoanThreshold   float64
	FinancingShare     float64
	Accrual            string
	MonthlyRate        float64
	AffordabilityRatio float64
}

// RequestConfig identifies a configured calculation.
type RequestConfig struct {
	Kind         string
	Name         string
	Active       bool
	Policy       string
	TotalCost    float64
	TenureMonths int
	MonthlyRate  float64
}

// ConfigValidator collects warnings over the policies and requests of a
// configuration. Warnings never stop a run; the engine clamps the values.
type ConfigValidator struct {
	Policies []PolicyConfig
	Requests []RequestConfig
}

// ValidatePolicy returns warnings for values the engine will clamp.
func ValidatePolicy(policy PolicyConfig) []string {
	var warnings []string
	label := fmt.Sprintf("Policy '%s'", policy.Name)

	if policy.DepositCap < 0 || policy.DepositCap > 1 {
		warnings = append(warnings, fmt.Sprintf("%s depositCap %.2f is outside (0, 1] and will be clamped", label, policy.DepositCap))
	}
	if policy.FinancingShare < 0 || policy.FinancingShare > 1 {
		warnings = append(warnings, fmt.Sprintf("%s financingShare %.2f is outside (0, 1] and will be clamped", label, policy.FinancingShare))
	}
	if policy.AffordabilityRatio < 0 || policy.AffordabilityRatio > 1 {
		warnings = append(warnings, fmt.Sprintf("%s affordabilityRatio %.2f is outside [0, 1] and will be clamped", label, policy.AffordabilityRatio))
	}
	if policy.MinLoanThreshold < 0 {
		warnings = append(warnings, fmt.Sprintf("%s minLoanThreshold %.2f is negative; the default applies", label, policy.MinLoanThreshold))
	}
	warnings = append(warnings, validateRate(label, policy.MonthlyRate)...)
	if policy.Accrual != "" {
		if _, ok := financing.StrategyFor(financing.Accrual(policy.Accrual)); !ok {
			warnings = append(warnings, fmt.Sprintf("%s accrual '%s' is unknown; flat accrual applies", label, policy.Accrual))
		}
	}
	return warnings
}

// ValidateRequest returns warnings for a single active request.
func ValidateRequest(request RequestConfig) []string {
	var warnings []string
	label := fmt.Sprintf("%s request '%s'", request.Kind, request.Name)

	if request.TotalCost < 0 {
		warnings = append(warnings, fmt.Sprintf("%s totalCost %.2f is negative and will be treated as 0", label, request.TotalCost))
	}
	if request.TenureMonths < 0 {
		warnings = append(warnings, fmt.Sprintf("%s tenureMonths %d is negative and will be treated as 1", label, request.TenureMonths))
	}
	warnings = append(warnings, validateRate(label, request.MonthlyRate)...)
	return warnings
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	policyNames := make(map[string]bool)
	for _, policy := range cv.Policies {
		if policyNames[policy.Name] {
			warnings = append(warnings, fmt.Sprintf("Policy '%s' is declared more than once; the first declaration wins", policy.Name))
		}
		policyNames[policy.Name] = true
		warnings = append(warnings, ValidatePolicy(policy)...)
	}

	requestNames := make(map[string]bool)
	for _, request := range cv.Requests {
		if !request.Active {
			continue
		}
		key := request.Kind + "/" + request.Name
		if requestNames[key] {
			warnings = append(warnings, fmt.Sprintf("%s request '%s' is declared more than once", request.Kind, request.Name))
		}
		requestNames[key] = true
		warnings = append(warnings, ValidateRequest(request)...)
	}

	return warnings
}

func validateRate(label string, rate float64) []string {
	if rate < 0 {
		return []string{fmt.Sprintf("%s monthlyRate %.4f is negative and will be treated as 0", label, rate)}
	}
	if rate > suspiciousMonthlyRate {
		return []string{fmt.Sprintf("%s monthlyRate %.4f looks like a percentage; rates are monthly fractions (0.02 = 2%%)", label, rate)}
	}
	return nil
}

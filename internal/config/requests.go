package config

import (
	"github.com/iwvelando/rent-finance/pkg/affordability"
	"github.com/iwvelando/rent-finance/pkg/financing"
)

// Request kinds as reported in warnings and results.
const (
	KindFinancing     = "financing"
	KindAffordability = "affordability"
)

// Charge is an itemized fee billed alongside the rent (service charge,
// agency fee, legal fee).
type Charge struct {
	Name   string  `yaml:"name" mapstructure:"name"`
	Amount float64 `yaml:"amount" mapstructure:"amount"`
}

// FinancingRequest configures one forward financing calculation. Pointer and
// zero-valued fields inherit from the referenced policy.
type FinancingRequest struct {
	Name            string            `yaml:"name" mapstructure:"name"`
	Active          bool              `yaml:"active" mapstructure:"active"`
	Policy          string            `yaml:"policy,omitempty" mapstructure:"policy"`
	TotalCost       float64           `yaml:"totalCost" mapstructure:"totalCost"`
	Deposit         financing.Deposit `yaml:"deposit" mapstructure:"deposit"`
	TenureMonths    int               `yaml:"tenureMonths,omitempty" mapstructure:"tenureMonths"`
	MonthlyRate     *float64          `yaml:"monthlyRate,omitempty" mapstructure:"monthlyRate"`
	Accrual         string            `yaml:"accrual,omitempty" mapstructure:"accrual"`
	DepositCap      *float64          `yaml:"depositCap,omitempty" mapstructure:"depositCap"`
	IncludeSchedule bool              `yaml:"includeSchedule,omitempty" mapstructure:"includeSchedule"`
	Compare         bool              `yaml:"compare,omitempty" mapstructure:"compare"`

	// Charges are added to TotalCost when ChargesInBase is set; otherwise
	// they are paid upfront on top of the deposit.
	Charges       []Charge         `yaml:"charges,omitempty" mapstructure:"charges"`
	ChargesInBase bool             `yaml:"chargesInBase,omitempty" mapstructure:"chargesInBase"`
	Optimize      *OptimizerConfig `yaml:"optimize,omitempty" mapstructure:"optimize"`
}

// AffordabilityRequest configures one affordability solve.
type AffordabilityRequest struct {
	Name                string   `yaml:"name" mapstructure:"name"`
	Active              bool     `yaml:"active" mapstructure:"active"`
	Policy              string   `yaml:"policy,omitempty" mapstructure:"policy"`
	MonthlyIncome       float64  `yaml:"monthlyIncome" mapstructure:"monthlyIncome"`
	ExistingObligations float64  `yaml:"existingObligations,omitempty" mapstructure:"existingObligations"`
	AffordabilityRatio  *float64 `yaml:"affordabilityRatio,omitempty" mapstructure:"affordabilityRatio"`
	TenureMonths        int      `yaml:"tenureMonths,omitempty" mapstructure:"tenureMonths"`
	MonthlyRate         *float64 `yaml:"monthlyRate,omitempty" mapstructure:"monthlyRate"`
	FinancingShare      *float64 `yaml:"financingShare,omitempty" mapstructure:"financingShare"`
	MinLoanThreshold    *float64 `yaml:"minLoanThreshold,omitempty" mapstructure:"minLoanThreshold"`
}

// ChargesTotal sums the itemized charges.
func (r FinancingRequest) ChargesTotal() float64 {
	total := 0.0
	for _, charge := range r.Charges {
		total += charge.Amount
	}
	return total
}

// ExtraUpfront is the amount paid upfront outside the financed base.
func (r FinancingRequest) ExtraUpfront() float64 {
	if r.ChargesInBase {
		return 0
	}
	return r.ChargesTotal()
}

// ToInput resolves the request against policy into an engine input.
func (r FinancingRequest) ToInput(policy Policy) financing.Input {
	totalCost := r.TotalCost
	if r.ChargesInBase {
		totalCost += r.ChargesTotal()
	}

	return financing.Input{
		TotalCost:       totalCost,
		Deposit:         r.Deposit,
		TenureMonths:    intOr(r.TenureMonths, policy.TenureMonths),
		MonthlyRate:     valueOr(r.MonthlyRate, policy.MonthlyRate),
		Accrual:         financing.Accrual(stringOr(r.Accrual, policy.Accrual)),
		DepositCap:      valueOr(r.DepositCap, policy.DepositCap),
		IncludeSchedule: r.IncludeSchedule,
	}
}

// ToInput resolves the request against policy into an engine input.
func (r AffordabilityRequest) ToInput(policy Policy) affordability.Input {
	return affordability.Input{
		MonthlyIncome:       r.MonthlyIncome,
		AffordabilityRatio:  valueOr(r.AffordabilityRatio, policy.AffordabilityRatio),
		ExistingObligations: r.ExistingObligations,
		TenureMonths:        intOr(r.TenureMonths, policy.TenureMonths),
		MonthlyRate:         valueOr(r.MonthlyRate, policy.MonthlyRate),
		FinancingShare:      valueOr(r.FinancingShare, policy.FinancingShare),
		MinLoanThreshold:    valueOr(r.MinLoanThreshold, policy.MinLoanThreshold),
	}
}

package financing

import (
	"math"

	"github.com/iwvelando/rent-finance/pkg/constants"
)

// Accrued is the interest outcome of applying a Strategy to a principal.
type Accrued struct {
	TotalInterest  float64
	TotalRepayable float64
}

// Strategy is an interest accrual convention.
type Strategy interface {
	Kind() Accrual
	Accrue(principal, monthlyRate float64, tenureMonths int) Accrued
	EffectiveAnnualRate(principal, monthlyRate float64, tenureMonths int) float64
}

// FlatInterest charges principal*rate for every month of the tenure. Interest
// is not reduced as installments are paid.
type FlatInterest struct{}

// Kind implements Strategy.
func (FlatInterest) Kind() Accrual { return AccrualFlat }

// Accrue implements Strategy.
func (FlatInterest) Accrue(principal, monthlyRate float64, tenureMonths int) Accrued {
	if monthlyRate == 0 || tenureMonths <= 0 {
		return Accrued{TotalRepayable: principal}
	}
	interest := principal * monthlyRate * float64(tenureMonths)
	return Accrued{TotalInterest: interest, TotalRepayable: principal + interest}
}

// EffectiveAnnualRate implements Strategy.
func (s FlatInterest) EffectiveAnnualRate(principal, monthlyRate float64, tenureMonths int) float64 {
	if tenureMonths <= 0 {
		return 0
	}
	if principal <= 0 {
		// interest/principal reduces to rate*tenure
		return monthlyRate * constants.MonthsPerYear
	}
	accrued := s.Accrue(principal, monthlyRate, tenureMonths)
	return (accrued.TotalInterest / principal) * (constants.MonthsPerYear / float64(tenureMonths))
}

// CompoundInterest compounds the rate monthly into a single maturity value.
type CompoundInterest struct{}

// Kind implements Strategy.
func (CompoundInterest) Kind() Accrual { return AccrualCompound }

// Accrue implements Strategy.
func (CompoundInterest) Accrue(principal, monthlyRate float64, tenureMonths int) Accrued {
	if monthlyRate == 0 || tenureMonths <= 0 {
		return Accrued{TotalRepayable: principal}
	}
	repayable := principal * math.Pow(1+monthlyRate, float64(tenureMonths))
	return Accrued{TotalInterest: repayable - principal, TotalRepayable: repayable}
}

// EffectiveAnnualRate implements Strategy.
func (CompoundInterest) EffectiveAnnualRate(_, monthlyRate float64, _ int) float64 {
	return math.Pow(1+monthlyRate, constants.MonthsPerYear) - 1
}

// StrategyFor returns the Strategy for an accrual name. An empty name selects
// flat accrual; unknown names report false.
func StrategyFor(accrual Accrual) (Strategy, bool) {
	switch accrual {
	case AccrualFlat, "":
		return FlatInterest{}, true
	case AccrualCompound:
		return CompoundInterest{}, true
	}
	return FlatInterest{}, false
}

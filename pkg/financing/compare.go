package financing

import (
	"github.com/iwvelando/rent-finance/pkg/mathutil"
	"go.uber.org/zap"
)

// Comparison contrasts paying the whole cost upfront with the installment
// arrangement described by an Input. Totals are deposit plus repayable.
type Comparison struct {
	Upfront          Result  `json:"upfront"`
	Installment      Result  `json:"installment"`
	UpfrontTotal     float64 `json:"upfrontTotal"`
	InstallmentTotal float64 `json:"installmentTotal"`
	Delta            float64 `json:"delta"`
	DeltaPercentage  float64 `json:"deltaPercentage"`
}

// Compare runs the upfront and installment branches for in without logging.
func Compare(in Input) Comparison {
	return NewCalculator(nil).Compare(in)
}

// Compare runs the upfront branch (whole cost as deposit, no interest) and
// the installment branch (in as given) and reports the difference.
// DeltaPercentage is a fraction of the upfront total, 0 when that total is 0.
func (c *Calculator) Compare(in Input) Comparison {
	upfront := c.Compute(Input{
		TotalCost:    in.TotalCost,
		Deposit:      Deposit{Kind: DepositPercentage, Value: 100},
		TenureMonths: 1,
		Accrual:      AccrualFlat,
		DepositCap:   1,
	})
	installment := c.Compute(in)

	cmp := Comparison{
		Upfront:          upfront,
		Installment:      installment,
		UpfrontTotal:     mathutil.FiniteOrZero(upfront.TotalOutlay()),
		InstallmentTotal: mathutil.FiniteOrZero(installment.TotalOutlay()),
	}
	cmp.Delta = mathutil.FiniteOrZero(cmp.InstallmentTotal - cmp.UpfrontTotal)
	if cmp.UpfrontTotal != 0 {
		cmp.DeltaPercentage = mathutil.FiniteOrZero(cmp.Delta / cmp.UpfrontTotal)
	}

	c.logger.Debug("compared upfront and installment totals",
		zap.String("op", "financing.Compare"),
		zap.Float64("upfront", cmp.UpfrontTotal),
		zap.Float64("installment", cmp.InstallmentTotal),
		zap.Float64("delta", cmp.Delta),
	)
	return cmp
}

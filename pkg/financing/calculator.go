package financing

import (
	"math"

	"github.com/iwvelando/rent-finance/pkg/mathutil"
	"go.uber.org/zap"
)

// Calculator computes payment breakdowns. It holds no state besides its
// logger and is safe for concurrent use.
type Calculator struct {
	logger *zap.Logger
}

// NewCalculator creates a new calculator instance
func NewCalculator(logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{logger: logger}
}

// ComputeFinancing computes the payment breakdown for in without logging.
func ComputeFinancing(in Input) Result {
	return NewCalculator(nil).Compute(in)
}

// Compute normalises in, applies the selected accrual strategy to the
// financed remainder and returns the full breakdown. It never fails.
func (c *Calculator) Compute(in Input) Result {
	norm, notices := NormalizeInput(in)

	depositAmount, depositNotice := NormalizeDeposit(norm.TotalCost, norm.Deposit, norm.DepositCap)
	if depositNotice != nil {
		notices = append(notices, *depositNotice)
	}

	strategy, _ := StrategyFor(norm.Accrual)
	remaining := norm.TotalCost - depositAmount
	accrued := strategy.Accrue(remaining, norm.MonthlyRate, norm.TenureMonths)
	tenure := float64(norm.TenureMonths)

	result := Result{
		Accrual:                strategy.Kind(),
		TenureMonths:           norm.TenureMonths,
		DepositAmount:          depositAmount,
		DepositPercentage:      ToPercentage(depositAmount, norm.TotalCost),
		RemainingPrincipal:     remaining,
		TotalInterest:          accrued.TotalInterest,
		TotalRepayable:         accrued.TotalRepayable,
		MonthlyInstallment:     accrued.TotalRepayable / tenure,
		AverageMonthlyInterest: accrued.TotalInterest / tenure,
		EffectiveAnnualRate:    strategy.EffectiveAnnualRate(remaining, norm.MonthlyRate, norm.TenureMonths),
		Notices:                notices,
	}

	// Extreme rates can overflow accrual; report those outputs as 0.
	result.TotalInterest, result.Notices = FiniteOutput("totalInterest", result.TotalInterest, result.Notices)
	result.TotalRepayable, result.Notices = FiniteOutput("totalRepayable", result.TotalRepayable, result.Notices)
	result.MonthlyInstallment, result.Notices = FiniteOutput("monthlyInstallment", result.MonthlyInstallment, result.Notices)
	result.AverageMonthlyInterest, result.Notices = FiniteOutput("averageMonthlyInterest", result.AverageMonthlyInterest, result.Notices)
	result.EffectiveAnnualRate, result.Notices = FiniteOutput("effectiveAnnualRate", result.EffectiveAnnualRate, result.Notices)
	notices = result.Notices

	if norm.IncludeSchedule {
		result.Schedule = buildSchedule(strategy.Kind(), result, norm.MonthlyRate)
	}

	for _, notice := range notices {
		c.logger.Debug("financing input adjusted",
			zap.String("op", "financing.Compute"),
			zap.String("kind", string(notice.Kind)),
			zap.String("field", notice.Field),
			zap.Float64("requested", notice.Requested),
			zap.Float64("applied", notice.Applied),
		)
	}

	return result
}

// buildSchedule returns tenure+1 points starting at month 0. Flat schedules
// track the cumulative amount paid; compound schedules track the growing
// outstanding value. Values that overflow are reported as 0.
func buildSchedule(accrual Accrual, result Result, monthlyRate float64) []SchedulePoint {
	schedule := make([]SchedulePoint, 0, result.TenureMonths+1)
	for month := 0; month <= result.TenureMonths; month++ {
		var value float64
		if accrual == AccrualCompound {
			value = result.RemainingPrincipal * math.Pow(1+monthlyRate, float64(month))
		} else {
			value = result.DepositAmount + result.MonthlyInstallment*float64(month)
		}
		schedule = append(schedule, SchedulePoint{Month: month, OutstandingOrValue: mathutil.FiniteOrZero(value)})
	}
	return schedule
}

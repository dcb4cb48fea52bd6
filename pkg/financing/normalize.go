package financing

import (
	"math"

	"github.com/iwvelando/rent-finance/pkg/constants"
	"github.com/iwvelando/rent-finance/pkg/mathutil"
)

// NormalizeDeposit converts a deposit into a fixed amount clamped to
// [0, totalCost*depositCap]. A non-nil notice is returned when the requested
// deposit was negative or exceeded the cap; the notice carries the amount
// actually applied.
func NormalizeDeposit(totalCost float64, deposit Deposit, depositCap float64) (float64, *Notice) {
	if !mathutil.IsFinite(totalCost) || totalCost < 0 {
		totalCost = 0
	}
	depositCap = normalizeCap(depositCap)

	requested := deposit.Value
	if deposit.Kind == DepositPercentage {
		requested = ToFixed(deposit.Value, totalCost)
	}

	limit := totalCost * depositCap
	switch {
	case math.IsNaN(requested) || requested < 0:
		return 0, &Notice{Kind: NoticeInvalidInput, Field: "deposit", Requested: mathutil.FiniteOrZero(requested), Applied: 0}
	case requested > limit:
		return limit, &Notice{Kind: NoticeDepositCapped, Field: "deposit", Requested: mathutil.FiniteOrZero(requested), Applied: limit}
	}
	return requested, nil
}

// ToPercentage expresses a fixed amount as a percentage of totalCost rounded
// to two decimal places.
func ToPercentage(fixedAmount, totalCost float64) float64 {
	if !mathutil.IsFinite(totalCost) || totalCost <= 0 || !mathutil.IsFinite(fixedAmount) {
		return 0
	}
	return mathutil.Round(mathutil.CalculatePercentage(fixedAmount, totalCost))
}

// ToFixed converts a percentage of totalCost into a currency amount.
func ToFixed(percentage, totalCost float64) float64 {
	if !mathutil.IsFinite(totalCost) || totalCost <= 0 {
		return 0
	}
	return mathutil.ApplyPercentage(totalCost, percentage)
}

// NormalizeInput clamps every numeric field of in to its valid range and
// returns the canonical input together with a notice per adjusted field.
// The deposit itself is left to NormalizeDeposit.
func NormalizeInput(in Input) (Input, []Notice) {
	var notices []Notice
	out := in

	out.TotalCost, notices = nonNegative("totalCost", in.TotalCost, notices)
	out.MonthlyRate, notices = nonNegative("monthlyRate", in.MonthlyRate, notices)

	out.TenureMonths, notices = NormalizeTenure(in.TenureMonths, notices)

	out.DepositCap = normalizeCap(in.DepositCap)
	if in.DepositCap != 0 && out.DepositCap != in.DepositCap {
		notices = append(notices, Notice{
			Kind: NoticeInvalidInput, Field: "depositCap",
			Requested: mathutil.FiniteOrZero(in.DepositCap), Applied: out.DepositCap,
		})
	}

	if _, ok := StrategyFor(in.Accrual); !ok || in.Accrual == "" {
		out.Accrual = AccrualFlat
		if !ok {
			notices = append(notices, Notice{Kind: NoticeInvalidInput, Field: "accrual"})
		}
	}

	if in.Deposit.Kind != DepositPercentage && in.Deposit.Kind != DepositFixed {
		out.Deposit.Kind = DepositFixed
		if in.Deposit.Kind != "" {
			notices = append(notices, Notice{Kind: NoticeInvalidInput, Field: "deposit.kind"})
		}
	}

	return out, notices
}

// NormalizeTenure clamps a tenure to [1, constants.MaxTenureMonths],
// reporting any adjustment.
func NormalizeTenure(tenureMonths int, notices []Notice) (int, []Notice) {
	applied := tenureMonths
	switch {
	case tenureMonths < 1:
		applied = 1
	case tenureMonths > constants.MaxTenureMonths:
		applied = constants.MaxTenureMonths
	default:
		return tenureMonths, notices
	}
	return applied, append(notices, Notice{
		Kind: NoticeInvalidInput, Field: "tenureMonths",
		Requested: float64(tenureMonths), Applied: float64(applied),
	})
}

// FiniteOutput replaces a NaN or infinite computed value with 0. The notice
// names the output field that could not be represented.
func FiniteOutput(field string, value float64, notices []Notice) (float64, []Notice) {
	if mathutil.IsFinite(value) {
		return value, notices
	}
	return 0, append(notices, Notice{Kind: NoticeInvalidInput, Field: field})
}

// NormalizeRatio clamps a fraction to [0, 1], reporting any adjustment.
func NormalizeRatio(field string, value float64, notices []Notice) (float64, []Notice) {
	clamped := mathutil.Clamp(value, 0, 1)
	if clamped != value {
		notices = append(notices, Notice{
			Kind: NoticeInvalidInput, Field: field,
			Requested: mathutil.FiniteOrZero(value), Applied: clamped,
		})
	}
	return clamped, notices
}

// NormalizeNonNegative replaces negative, NaN or infinite values with 0,
// reporting any adjustment.
func NormalizeNonNegative(field string, value float64, notices []Notice) (float64, []Notice) {
	return nonNegative(field, value, notices)
}

func nonNegative(field string, value float64, notices []Notice) (float64, []Notice) {
	if mathutil.IsFinite(value) && value >= 0 {
		return value, notices
	}
	return 0, append(notices, Notice{
		Kind: NoticeInvalidInput, Field: field,
		Requested: mathutil.FiniteOrZero(value), Applied: 0,
	})
}

// normalizeCap maps an unset or invalid cap to the default and bounds it at 1.
func normalizeCap(depositCap float64) float64 {
	if math.IsNaN(depositCap) || depositCap <= 0 {
		return constants.DefaultDepositCap
	}
	if depositCap > 1 {
		return 1
	}
	return depositCap
}

// Package affordability sizes the largest rent an applicant can finance from
// their income, and decides whether that amount qualifies for financing.
package affordability

import (
	"math"

	"github.com/iwvelando/rent-finance/pkg/constants"
	"github.com/iwvelando/rent-finance/pkg/financing"
	"github.com/iwvelando/rent-finance/pkg/mathutil"
	"go.uber.org/zap"
)

// Input holds the applicant's income and the financing policy.
//
// FinancingShare and MinLoanThreshold fall back to their defaults (0.5 and
// 50,000) when left at zero.
type Input struct {
	MonthlyIncome       float64 `json:"monthlyIncome"`
	AffordabilityRatio  float64 `json:"affordabilityRatio"`
	ExistingObligations float64 `json:"existingObligations,omitempty"`
	TenureMonths        int     `json:"tenureMonths"`
	MonthlyRate         float64 `json:"monthlyRate"`
	FinancingShare      float64 `json:"financingShare,omitempty"`
	MinLoanThreshold    float64 `json:"minLoanThreshold,omitempty"`
}

// Result is the outcome of an affordability solve.
type Result struct {
	MaxMonthlyCapacity float64            `json:"maxMonthlyCapacity"`
	MaxPrincipal       float64            `json:"maxPrincipal"`
	MaxRent            float64            `json:"maxRent"`
	UpfrontPayment     float64            `json:"upfrontPayment"`
	Qualifies          bool               `json:"qualifies"`
	Reasons            []string           `json:"reasons"`
	Notices            []financing.Notice `json:"notices,omitempty"`
}

// Solver runs affordability solves. It is stateless apart from its logger.
type Solver struct {
	logger *zap.Logger
}

// NewSolver creates a new solver instance
func NewSolver(logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{logger: logger}
}

// SolveAffordability solves in without logging.
func SolveAffordability(in Input) Result {
	return NewSolver(nil).Solve(in)
}

// Solve derives the monthly payment capacity from income, inverts the annuity
// relation to the largest principal that capacity services, scales it up to
// a rent through the financing share and evaluates eligibility.
func (s *Solver) Solve(in Input) Result {
	norm, notices := NormalizeInput(in)

	capacity := math.Max(0, mathutil.FloorCurrency(norm.MonthlyIncome*norm.AffordabilityRatio-norm.ExistingObligations))
	principal, notices := financing.FiniteOutput("maxPrincipal",
		PresentValue(capacity, norm.MonthlyRate, norm.TenureMonths), notices)
	maxRent, notices := financing.FiniteOutput("maxRent",
		mathutil.FloorCurrency(principal/norm.FinancingShare), notices)
	upfront := mathutil.CeilCurrency(maxRent * (1 - norm.FinancingShare))

	result := Result{
		MaxMonthlyCapacity: capacity,
		MaxPrincipal:       principal,
		MaxRent:            maxRent,
		UpfrontPayment:     upfront,
		Notices:            notices,
	}

	decision := Evaluate(result, norm.MinLoanThreshold)
	result.Qualifies = decision.Qualifies
	result.Reasons = decision.Reasons

	s.logger.Debug("affordability solved",
		zap.String("op", "affordability.Solve"),
		zap.Float64("capacity", capacity),
		zap.Float64("principal", principal),
		zap.Float64("rent", maxRent),
		zap.Bool("qualifies", result.Qualifies),
		zap.Int("notices", len(notices)),
	)
	return result
}

// PresentValue returns the largest principal, floored to whole currency
// units, that a level payment pmt services over n months at monthly rate r.
// The annuity factor approaches 1/r for long tenures.
func PresentValue(pmt, r float64, n int) float64 {
	if pmt <= 0 || n <= 0 || !mathutil.IsFinite(pmt) || !mathutil.IsFinite(r) {
		return 0
	}
	periods := float64(n)
	if r <= 0 {
		return mathutil.FloorCurrency(pmt * periods)
	}
	factor := -math.Expm1(-periods*math.Log1p(r)) / r
	return mathutil.FloorCurrency(pmt * factor)
}

// NormalizeInput clamps the affordability inputs and applies policy defaults.
func NormalizeInput(in Input) (Input, []financing.Notice) {
	var notices []financing.Notice
	out := in

	out.MonthlyIncome, notices = financing.NormalizeNonNegative("monthlyIncome", in.MonthlyIncome, notices)
	out.ExistingObligations, notices = financing.NormalizeNonNegative("existingObligations", in.ExistingObligations, notices)
	out.MonthlyRate, notices = financing.NormalizeNonNegative("monthlyRate", in.MonthlyRate, notices)
	out.AffordabilityRatio, notices = financing.NormalizeRatio("affordabilityRatio", in.AffordabilityRatio, notices)

	out.TenureMonths, notices = financing.NormalizeTenure(in.TenureMonths, notices)

	switch {
	case in.FinancingShare == 0:
		out.FinancingShare = constants.DefaultFinancingShare
	case !(in.FinancingShare > 0):
		out.FinancingShare = constants.DefaultFinancingShare
		notices = append(notices, financing.Notice{
			Kind: financing.NoticeInvalidInput, Field: "financingShare",
			Applied: out.FinancingShare,
		})
	case in.FinancingShare > 1:
		out.FinancingShare = 1
		notices = append(notices, financing.Notice{
			Kind: financing.NoticeInvalidInput, Field: "financingShare",
			Requested: mathutil.FiniteOrZero(in.FinancingShare), Applied: 1,
		})
	}

	switch {
	case in.MinLoanThreshold == 0:
		out.MinLoanThreshold = constants.DefaultMinLoanThreshold
	case !(in.MinLoanThreshold > 0):
		out.MinLoanThreshold = constants.DefaultMinLoanThreshold
		notices = append(notices, financing.Notice{
			Kind: financing.NoticeInvalidInput, Field: "minLoanThreshold",
			Applied: out.MinLoanThreshold,
		})
	}

	return out, notices
}

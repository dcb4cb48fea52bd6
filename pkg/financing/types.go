// Package financing implements the forward installment-financing calculation:
// deposit normalisation, interest accrual conventions, payment breakdowns and
// upfront-versus-installment comparisons.
//
// Every function in this package is pure. Invalid numeric input is clamped to
// the nearest valid boundary and reported through Notices rather than errors.
package financing

// DepositKind selects how Deposit.Value is interpreted.
type DepositKind string

const (
	// DepositPercentage treats the value as a percentage of the total cost.
	DepositPercentage DepositKind = "percentage"
	// DepositFixed treats the value as a currency amount.
	DepositFixed DepositKind = "fixed"
)

// Accrual names an interest accrual convention.
type Accrual string

const (
	// AccrualFlat charges principal*rate for every month of the tenure.
	AccrualFlat Accrual = "flat"
	// AccrualCompound compounds the rate monthly to a single maturity value.
	AccrualCompound Accrual = "compound"
)

// Deposit is the upfront portion of the total cost.
type Deposit struct {
	Kind  DepositKind `json:"kind" yaml:"kind"`
	Value float64     `json:"value" yaml:"value"`
}

// Input holds the parameters of a forward financing calculation.
//
// DepositCap is a fraction of TotalCost; zero selects the default of 0.9.
type Input struct {
	TotalCost       float64 `json:"totalCost"`
	Deposit         Deposit `json:"deposit"`
	TenureMonths    int     `json:"tenureMonths"`
	MonthlyRate     float64 `json:"monthlyRate"`
	Accrual         Accrual `json:"accrual"`
	DepositCap      float64 `json:"depositCap,omitempty"`
	IncludeSchedule bool    `json:"includeSchedule,omitempty"`
}

// SchedulePoint is the outstanding (compound) or accumulated paid (flat)
// value at the end of a given month.
type SchedulePoint struct {
	Month              int     `json:"month"`
	OutstandingOrValue float64 `json:"outstandingOrValue"`
}

// Result is the payment breakdown for a financing Input.
type Result struct {
	Accrual            Accrual `json:"accrual"`
	TenureMonths       int     `json:"tenureMonths"`
	DepositAmount      float64 `json:"depositAmount"`
	DepositPercentage  float64 `json:"depositPercentage"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
	TotalInterest      float64 `json:"totalInterest"`
	TotalRepayable     float64 `json:"totalRepayable"`
	MonthlyInstallment float64 `json:"monthlyInstallment"`

	// AverageMonthlyInterest is TotalInterest spread evenly over the tenure.
	// Under compound accrual it is a display average, not a cash flow.
	AverageMonthlyInterest float64 `json:"averageMonthlyInterest"`

	EffectiveAnnualRate float64         `json:"effectiveAnnualRate"`
	Schedule            []SchedulePoint `json:"schedule,omitempty"`
	Notices             []Notice        `json:"notices,omitempty"`
}

// TotalOutlay is everything paid over the life of the arrangement.
func (r Result) TotalOutlay() float64 {
	return r.DepositAmount + r.TotalRepayable
}

// NoticeKind classifies a clamp applied during normalisation.
type NoticeKind string

const (
	// NoticeInvalidInput reports a negative, NaN or out-of-range value that
	// was replaced by the nearest valid boundary.
	NoticeInvalidInput NoticeKind = "invalid_input"
	// NoticeDepositCapped reports a deposit reduced to the configured cap.
	NoticeDepositCapped NoticeKind = "deposit_capped"
)

// Notice describes an input that was clamped. It is informational; the
// calculation always completes.
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	Field     string     `json:"field"`
	Requested float64    `json:"requested"`
	Applied   float64    `json:"applied"`
}

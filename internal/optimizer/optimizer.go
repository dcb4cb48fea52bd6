package optimizer

import (
	"fmt"

	"github.com/iwvelando/rent-finance/internal/config"
	"github.com/iwvelando/rent-finance/internal/engine"
	"github.com/iwvelando/rent-finance/pkg/financing"
	"github.com/iwvelando/rent-finance/pkg/mathutil"
	"github.com/iwvelando/rent-finance/pkg/optimization"
	"go.uber.org/zap"
)

// Runner searches tenures for financing requests that declare an optimize
// block.
type Runner struct {
	logger     *zap.Logger
	conf       *config.Configuration
	calculator *financing.Calculator
}

type tenureTarget struct {
	request *config.FinancingRequest
	input   financing.Input
	cfg     *config.OptimizerConfig
}

type evaluation struct {
	tenure      int
	installment float64
	budget      float64
}

func (e evaluation) feasible() bool {
	return mathutil.Round(e.installment) <= mathutil.Round(e.budget)
}

func (e evaluation) headroom() float64 {
	return mathutil.Round(e.budget - e.installment)
}

// Result summarizes optimizer adjustments keyed by request name.
type Result struct {
	Summaries map[string][]optimization.Summary
}

// Empty indicates whether any optimizer adjustments were produced.
func (r Result) Empty() bool {
	return len(r.Summaries) == 0
}

// Apply attaches optimizer summaries to the matching outcomes of report.
func (r Result) Apply(report *engine.Report) {
	if len(r.Summaries) == 0 || report == nil {
		return
	}
	for i := range report.Outcomes {
		if report.Outcomes[i].Kind != config.KindFinancing {
			continue
		}
		summaries, ok := r.Summaries[report.Outcomes[i].Name]
		if !ok {
			continue
		}
		report.Outcomes[i].Optimizations = append(report.Outcomes[i].Optimizations, summaries...)
	}
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, conf *config.Configuration) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, conf: conf, calculator: financing.NewCalculator(nil)}, nil
}

// Run executes all optimizer directives and mutates the configuration in
// place: each optimized request's TenureMonths is set to the chosen tenure.
func (r *Runner) Run() (*Result, error) {
	targets, err := r.collectTargets()
	if err != nil {
		return nil, err
	}

	summaries := make(map[string][]optimization.Summary)
	for _, target := range targets {
		summary := r.optimizeTenure(target)
		target.request.TenureMonths = int(summary.Value)
		summaries[target.request.Name] = append(summaries[target.request.Name], summary)

		r.logger.Info("optimizer adjusted financing tenure",
			zap.String("op", "optimizer.Run"),
			zap.String("request", target.request.Name),
			zap.Float64("original", summary.Original),
			zap.Float64("optimized", summary.Value),
			zap.Float64("budget", summary.Budget),
			zap.Float64("installment", summary.Installment),
			zap.Int("iterations", summary.Iterations),
			zap.Bool("converged", summary.Converged),
		)
	}

	return &Result{Summaries: summaries}, nil
}

func (r *Runner) collectTargets() ([]tenureTarget, error) {
	var targets []tenureTarget

	for i := range r.conf.Financing {
		request := &r.conf.Financing[i]
		if !request.Active || request.Optimize == nil {
			continue
		}
		if err := request.Optimize.Validate(); err != nil {
			return nil, fmt.Errorf("financing request %s: %w", request.Name, err)
		}
		policy, err := r.conf.Policy(request.Policy)
		if err != nil {
			return nil, fmt.Errorf("financing request %s: %w", request.Name, err)
		}
		targets = append(targets, tenureTarget{
			request: request,
			input:   request.ToInput(policy),
			cfg:     request.Optimize,
		})
	}

	return targets, nil
}

func (r *Runner) evaluate(target tenureTarget, tenure int) evaluation {
	in := target.input
	in.TenureMonths = tenure
	in.IncludeSchedule = false
	result := r.calculator.Compute(in)
	return evaluation{tenure: tenure, installment: result.MonthlyInstallment, budget: target.cfg.MaxInstallment}
}

// optimizeTenure finds the shortest tenure within bounds whose installment
// fits the budget. Flat installments fall monotonically with tenure, so the
// search bisects; compound installments turn upward once growth outpaces the
// longer spread, so every tenure is scanned in order.
func (r *Runner) optimizeTenure(target tenureTarget) optimization.Summary {
	cfg := target.cfg
	original := target.input.TenureMonths
	if original < 1 {
		original = 1
	}

	var final evaluation
	var iterations int
	converged := true
	var notes []string

	if strategy, _ := financing.StrategyFor(target.input.Accrual); strategy.Kind() == financing.AccrualCompound {
		final, iterations = r.scan(target)
	} else {
		final, iterations, converged = r.bisect(target)
	}

	if !final.feasible() {
		converged = false
		notes = append(notes, fmt.Sprintf(
			"unable to keep installment within %.2f for tenures %d to %d months",
			cfg.MaxInstallment, cfg.MinTenureMonths, cfg.MaxTenureMonths,
		))
	} else if !converged {
		notes = append(notes, fmt.Sprintf("search stopped after %d iterations", iterations))
	}

	return optimization.Summary{
		TargetName:  target.request.Name,
		Field:       cfg.Field,
		Original:    float64(original),
		Value:       float64(final.tenure),
		Budget:      cfg.MaxInstallment,
		Installment: mathutil.Round(final.installment),
		Headroom:    final.headroom(),
		Iterations:  iterations,
		Converged:   converged,
		Notes:       notes,
	}
}

func (r *Runner) bisect(target tenureTarget) (evaluation, int, bool) {
	cfg := target.cfg

	lowerEval := r.evaluate(target, cfg.MinTenureMonths)
	if lowerEval.feasible() {
		return lowerEval, 0, true
	}
	upperEval := r.evaluate(target, cfg.MaxTenureMonths)
	if !upperEval.feasible() {
		return upperEval, 0, false
	}

	iterations := 0
	lower := lowerEval.tenure
	finalEval := upperEval
	for iterations < cfg.MaxIterations && finalEval.tenure-lower > 1 {
		mid := lower + (finalEval.tenure-lower)/2
		evalMid := r.evaluate(target, mid)
		iterations++
		if evalMid.feasible() {
			finalEval = evalMid
		} else {
			lower = mid
		}
	}

	return finalEval, iterations, finalEval.tenure-lower <= 1
}

func (r *Runner) scan(target tenureTarget) (evaluation, int) {
	cfg := target.cfg

	iterations := 0
	best := r.evaluate(target, cfg.MaxTenureMonths)
	for tenure := cfg.MinTenureMonths; tenure <= cfg.MaxTenureMonths; tenure++ {
		eval := r.evaluate(target, tenure)
		iterations++
		if eval.feasible() {
			return eval, iterations
		}
		if eval.installment < best.installment {
			best = eval
		}
	}
	return best, iterations
}

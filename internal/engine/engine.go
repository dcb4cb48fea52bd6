// Package engine defines the data structures related to an evaluation run and
// includes functions for executing every configured request.
package engine

import (
	"fmt"

	"github.com/iwvelando/rent-finance/internal/config"
	"github.com/iwvelando/rent-finance/pkg/affordability"
	"github.com/iwvelando/rent-finance/pkg/financing"
	"github.com/iwvelando/rent-finance/pkg/optimization"
	"go.uber.org/zap"
)

// Outcome holds everything computed for a single configured request. Exactly
// one of Financing or Affordability is set, according to Kind.
type Outcome struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Policy string `json:"policy,omitempty"`

	Financing    *financing.Result     `json:"financing,omitempty"`
	Comparison   *financing.Comparison `json:"comparison,omitempty"`
	Charges      []config.Charge       `json:"charges,omitempty"`
	ExtraUpfront float64               `json:"extraUpfront,omitempty"`

	Affordability *affordability.Result `json:"affordability,omitempty"`

	Optimizations []optimization.Summary `json:"optimizations,omitempty"`
	Notes         []string               `json:"notes,omitempty"`
}

// UpfrontDue is the cash needed at signing: the deposit plus any charges
// billed outside the financed base, or the affordability upfront share.
func (o Outcome) UpfrontDue() float64 {
	switch {
	case o.Financing != nil:
		return o.Financing.DepositAmount + o.ExtraUpfront
	case o.Affordability != nil:
		return o.Affordability.UpfrontPayment
	default:
		return 0
	}
}

// Report is the ordered set of outcomes of one run. Financing requests come
// first, in configuration order, followed by affordability requests.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Find returns the outcome with the given name, or nil.
func (r Report) Find(name string) *Outcome {
	for i := range r.Outcomes {
		if r.Outcomes[i].Name == name {
			return &r.Outcomes[i]
		}
	}
	return nil
}

// Evaluate runs every active request in conf.
func Evaluate(logger *zap.Logger, conf config.Configuration) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	calculator := financing.NewCalculator(logger)
	solver := affordability.NewSolver(logger)
	report := Report{Outcomes: []Outcome{}}

	for _, request := range conf.Financing {
		if !request.Active {
			logger.Debug(fmt.Sprintf("skipping financing request %s because it is inactive", request.Name),
				zap.String("op", "engine.Evaluate"),
			)
			continue
		}

		policy, err := conf.Policy(request.Policy)
		if err != nil {
			return report, fmt.Errorf("financing request %s: %w", request.Name, err)
		}

		in := request.ToInput(policy)
		result := calculator.Compute(in)
		outcome := Outcome{
			Name:         request.Name,
			Kind:         config.KindFinancing,
			Policy:       request.Policy,
			Financing:    &result,
			Charges:      request.Charges,
			ExtraUpfront: request.ExtraUpfront(),
			Notes:        NoticeNotes(result.Notices),
		}
		if request.Compare {
			comparison := calculator.Compare(in)
			outcome.Comparison = &comparison
		}

		logger.Debug("evaluated financing request",
			zap.String("op", "engine.Evaluate"),
			zap.String("request", request.Name),
			zap.Float64("installment", result.MonthlyInstallment),
			zap.Int("notices", len(result.Notices)),
		)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	for _, request := range conf.Affordability {
		if !request.Active {
			logger.Debug(fmt.Sprintf("skipping affordability request %s because it is inactive", request.Name),
				zap.String("op", "engine.Evaluate"),
			)
			continue
		}

		policy, err := conf.Policy(request.Policy)
		if err != nil {
			return report, fmt.Errorf("affordability request %s: %w", request.Name, err)
		}

		result := solver.Solve(request.ToInput(policy))
		notes := NoticeNotes(result.Notices)
		notes = append(notes, result.Reasons...)

		logger.Debug("evaluated affordability request",
			zap.String("op", "engine.Evaluate"),
			zap.String("request", request.Name),
			zap.Float64("maxRent", result.MaxRent),
			zap.Bool("qualifies", result.Qualifies),
		)
		report.Outcomes = append(report.Outcomes, Outcome{
			Name:          request.Name,
			Kind:          config.KindAffordability,
			Policy:        request.Policy,
			Affordability: &result,
			Notes:         notes,
		})
	}

	return report, nil
}

// NoticeNotes renders clamp notices as short human-readable notes.
func NoticeNotes(notices []financing.Notice) []string {
	var notes []string
	for _, notice := range notices {
		switch {
		case notice.Kind == financing.NoticeDepositCapped:
			notes = append(notes, fmt.Sprintf("deposit capped at %.2f", notice.Applied))
		case notice.Requested == notice.Applied:
			notes = append(notes, fmt.Sprintf("%s was not usable and has been reset", notice.Field))
		default:
			notes = append(notes, fmt.Sprintf("%s adjusted from %.4g to %.4g", notice.Field, notice.Requested, notice.Applied))
		}
	}
	return notes
}

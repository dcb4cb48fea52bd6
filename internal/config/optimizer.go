package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/rent-finance/pkg/constants"
)

const (
	OptimizerFieldTenure = "tenureMonths"

	OptimizerKindInstallmentCeiling = "installment_ceiling"

	defaultMaxIterations = 50
)

// OptimizerConfig defines a tenure search: the shortest tenure whose monthly
// installment does not exceed MaxInstallment.
type OptimizerConfig struct {
	Field           string  `yaml:"field,omitempty" mapstructure:"field"`
	Kind            string  `yaml:"kind,omitempty" mapstructure:"kind"`
	MaxInstallment  float64 `yaml:"maxInstallment" mapstructure:"maxInstallment"`
	MinTenureMonths int     `yaml:"minTenureMonths,omitempty" mapstructure:"minTenureMonths"`
	MaxTenureMonths int     `yaml:"maxTenureMonths,omitempty" mapstructure:"maxTenureMonths"`
	MaxIterations   int     `yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
}

// CanonicalOptimizerField returns the canonical identifier for an optimizer field.
func CanonicalOptimizerField(value string) string {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "", "tenure", "tenuremonths", "tenure_months", "tenure-months":
		return OptimizerFieldTenure
	default:
		return strings.ToLower(trimmed)
	}
}

// Normalize ensures defaults and canonical values are applied before validation.
func (o *OptimizerConfig) Normalize() {
	if o == nil {
		return
	}
	o.Field = CanonicalOptimizerField(o.Field)

	o.Kind = strings.ToLower(strings.TrimSpace(o.Kind))
	if o.Kind == "" {
		o.Kind = OptimizerKindInstallmentCeiling
	}

	if o.MinTenureMonths <= 0 {
		o.MinTenureMonths = 1
	}
	if o.MaxTenureMonths <= 0 {
		o.MaxTenureMonths = constants.DefaultMaxTenureMonths
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
}

// Validate returns an error when the optimizer configuration is unsupported.
func (o *OptimizerConfig) Validate() error {
	if o == nil {
		return fmt.Errorf("optimizer configuration cannot be nil")
	}

	o.Normalize()

	if o.Field != OptimizerFieldTenure {
		return fmt.Errorf("optimizer field %q is not supported", o.Field)
	}
	if o.Kind != OptimizerKindInstallmentCeiling {
		return fmt.Errorf("optimizer kind %q is not supported", o.Kind)
	}
	if o.MaxInstallment <= 0 {
		return fmt.Errorf("optimizer requires a positive maxInstallment, got %.2f", o.MaxInstallment)
	}
	if o.MaxTenureMonths > constants.MaxTenureMonths {
		return fmt.Errorf("optimizer maximum tenure %d exceeds the limit of %d months",
			o.MaxTenureMonths, constants.MaxTenureMonths)
	}
	if o.MinTenureMonths > o.MaxTenureMonths {
		return fmt.Errorf("optimizer minimum tenure %d must not exceed maximum tenure %d",
			o.MinTenureMonths, o.MaxTenureMonths)
	}

	return nil
}

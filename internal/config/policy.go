package config

import "fmt"

// Policy is a named set of financing rules a product surface selects. Zero
// values fall through to the engine defaults.
type Policy struct {
	Name               string  `yaml:"name" mapstructure:"name"`
	DepositCap         float64 `yaml:"depositCap,omitempty" mapstructure:"depositCap"`
	MinLoanThreshold   float64 `yaml:"minLoanThreshold,omitempty" mapstructure:"minLoanThreshold"`
	FinancingShare     float64 `yaml:"financingShare,omitempty" mapstructure:"financingShare"`
	Accrual            string  `yaml:"accrual,omitempty" mapstructure:"accrual"`
	MonthlyRate        float64 `yaml:"monthlyRate,omitempty" mapstructure:"monthlyRate"`
	AffordabilityRatio float64 `yaml:"affordabilityRatio,omitempty" mapstructure:"affordabilityRatio"`
	TenureMonths       int     `yaml:"tenureMonths,omitempty" mapstructure:"tenureMonths"`
}

// Policy looks up a policy by name. The empty name resolves to the zero
// policy, i.e. engine defaults. The first declaration of a name wins.
func (c *Configuration) Policy(name string) (Policy, error) {
	if name == "" {
		return Policy{}, nil
	}
	for _, policy := range c.Policies {
		if policy.Name == name {
			return policy, nil
		}
	}
	return Policy{}, fmt.Errorf("unknown policy %q", name)
}

func valueOr(value *float64, fallback float64) float64 {
	if value == nil {
		return fallback
	}
	return *value
}

func intOr(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func stringOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

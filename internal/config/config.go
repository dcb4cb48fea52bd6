// Package config defines the data structures related to configuration and
// includes functions for loading the config and resolving it into engine
// inputs.
package config

import (
	"fmt"
	"io"

	"github.com/iwvelando/rent-finance/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for rent-finance.
type Configuration struct {
	Logging       LoggingConfig          `yaml:"logging,omitempty" mapstructure:"logging"`
	Output        OutputConfig           `yaml:"output,omitempty" mapstructure:"output"`
	Currency      CurrencyConfig         `yaml:"currency,omitempty" mapstructure:"currency"`
	Policies      []Policy               `yaml:"policies,omitempty" mapstructure:"policies"`
	Financing     []FinancingRequest     `yaml:"financing,omitempty" mapstructure:"financing"`
	Affordability []AffordabilityRequest `yaml:"affordability,omitempty" mapstructure:"affordability"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv
}

// CurrencyConfig controls how the CLI renders amounts.
type CurrencyConfig struct {
	Symbol string `yaml:"symbol,omitempty" mapstructure:"symbol"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	for i := range configuration.Financing {
		if opt := configuration.Financing[i].Optimize; opt != nil {
			if err := opt.Validate(); err != nil {
				return nil, fmt.Errorf("financing request %s: %w", configuration.Financing[i].Name, err)
			}
		}
	}

	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	cv := validation.ConfigValidator{}
	for _, policy := range c.Policies {
		cv.Policies = append(cv.Policies, validation.PolicyConfig{
			Name:               policy.Name,
			DepositCap:         policy.DepositCap,
			MinLoanThreshold:   policy.MinLoanThreshold,
			FinancingShare:     policy.FinancingShare,
			Accrual:            policy.Accrual,
			MonthlyRate:        policy.MonthlyRate,
			AffordabilityRatio: policy.AffordabilityRatio,
		})
	}

	var warnings []string
	for _, request := range c.Financing {
		cv.Requests = append(cv.Requests, validation.RequestConfig{
			Kind:         KindFinancing,
			Name:         request.Name,
			Active:       request.Active,
			Policy:       request.Policy,
			TotalCost:    request.TotalCost,
			TenureMonths: request.TenureMonths,
			MonthlyRate:  valueOr(request.MonthlyRate, 0),
		})
		warnings = append(warnings, c.policyReferenceWarning(KindFinancing, request.Name, request.Active, request.Policy)...)
	}
	for _, request := range c.Affordability {
		cv.Requests = append(cv.Requests, validation.RequestConfig{
			Kind:         KindAffordability,
			Name:         request.Name,
			Active:       request.Active,
			Policy:       request.Policy,
			TenureMonths: request.TenureMonths,
			MonthlyRate:  valueOr(request.MonthlyRate, 0),
		})
		warnings = append(warnings, c.policyReferenceWarning(KindAffordability, request.Name, request.Active, request.Policy)...)
	}

	return append(cv.ValidateAll(), warnings...)
}

func (c *Configuration) policyReferenceWarning(kind, name string, active bool, policy string) []string {
	if !active || policy == "" {
		return nil
	}
	if _, err := c.Policy(policy); err != nil {
		return []string{fmt.Sprintf("%s request '%s' references unknown policy '%s'", kind, name, policy)}
	}
	return nil
}

// Package constants provides shared constants for the rent-finance application.
package constants

import "time"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPlaces is the number of decimal places kept for currency values
	DecimalPlaces = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// ToleranceForComparison is the tolerance for round-trip conversions (1 currency unit)
	ToleranceForComparison = 1.0
)

// Policy defaults applied when a field is left at its zero value.
const (
	// DefaultDepositCap is the largest fraction of the total cost a deposit may cover
	DefaultDepositCap = 0.9

	// DefaultMinLoanThreshold is the smallest principal worth financing
	DefaultMinLoanThreshold = 50000.0

	// DefaultFinancingShare is the fraction of the rent fronted by the financing partner
	DefaultFinancingShare = 0.5

	// DefaultTenureMonths is the tenure used when none is supplied
	DefaultTenureMonths = 1

	// DefaultMaxTenureMonths bounds tenure searches
	DefaultMaxTenureMonths = 60

	// MaxTenureMonths is the longest tenure accepted anywhere (100 years)
	MaxTenureMonths = 1200
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultCurrencySymbol is prefixed to currency values in pretty output
	DefaultCurrencySymbol = "₦"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// RequestIDHeader carries the per-request correlation id
	RequestIDHeader = "X-Request-ID"

	// DefaultReadHeaderTimeout bounds how long a client may take to send headers
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown of in-flight requests
	DefaultShutdownTimeout = 15 * time.Second
)

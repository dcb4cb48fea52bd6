// Package format renders numbers for display. The calculation packages never
// call it; only the CLI and report renderers do.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Currency returns a currency string with the given symbol and thousands
// separators (e.g., "-₦1,234.56").
func Currency(symbol string, amount float64) string {
	formatted := NumericCurrency(math.Abs(amount))
	if amount < 0 {
		return "-" + symbol + formatted
	}
	return symbol + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	return printer.Sprintf("%.2f", amount)
}

// Percentage renders a fraction as a percentage with two decimals (0.15 -> "15.00%").
func Percentage(fraction float64) string {
	return printer.Sprintf("%.2f%%", fraction*100)
}

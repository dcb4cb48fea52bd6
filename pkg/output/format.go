// Package output provides utilities for formatting and displaying evaluation results.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/rent-finance/internal/engine"
	"github.com/iwvelando/rent-finance/pkg/constants"
	"github.com/iwvelando/rent-finance/pkg/format"
)

// CsvHeader lists the columns written by WriteCsv.
var CsvHeader = []string{
	"name", "kind", "policy",
	"deposit", "tenureMonths", "monthlyInstallment", "totalInterest", "totalRepayable",
	"extraUpfront", "upfrontDue",
	"maxMonthlyCapacity", "maxPrincipal", "maxRent", "qualifies",
	"notes",
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(report engine.Report, symbol string) {
	WritePretty(os.Stdout, report, symbol)
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(report engine.Report) error {
	return WriteCsv(os.Stdout, report)
}

// CsvString renders report as CSV text.
func CsvString(report engine.Report) (string, error) {
	var buf bytes.Buffer
	if err := WriteCsv(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WritePretty writes one block per outcome to w.
func WritePretty(w io.Writer, report engine.Report, symbol string) {
	if symbol == "" {
		symbol = constants.DefaultCurrencySymbol
	}
	money := func(amount float64) string { return format.Currency(symbol, amount) }

	for i, outcome := range report.Outcomes {
		if i > 0 {
			fmt.Fprintf(w, "\n")
		}
		fmt.Fprintf(w, "--- Results for %s request %s ---\n", outcome.Kind, outcome.Name)

		if result := outcome.Financing; result != nil {
			fmt.Fprintf(w, "Deposit               | %s (%s%%)\n", money(result.DepositAmount), format.NumericCurrency(result.DepositPercentage))
			fmt.Fprintf(w, "Financed              | %s\n", money(result.RemainingPrincipal))
			fmt.Fprintf(w, "Tenure                | %d months (%s)\n", result.TenureMonths, result.Accrual)
			fmt.Fprintf(w, "Monthly installment   | %s\n", money(result.MonthlyInstallment))
			fmt.Fprintf(w, "Total interest        | %s\n", money(result.TotalInterest))
			fmt.Fprintf(w, "Total repayable       | %s\n", money(result.TotalRepayable))
			fmt.Fprintf(w, "Effective annual rate | %s\n", format.Percentage(result.EffectiveAnnualRate))
			for _, charge := range outcome.Charges {
				fmt.Fprintf(w, "Charge: %-14s | %s\n", charge.Name, money(charge.Amount))
			}
			fmt.Fprintf(w, "Due upfront           | %s\n", money(outcome.UpfrontDue()))

			if cmp := outcome.Comparison; cmp != nil {
				fmt.Fprintf(w, "Upfront total         | %s\n", money(cmp.UpfrontTotal))
				fmt.Fprintf(w, "Installment total     | %s\n", money(cmp.InstallmentTotal))
				fmt.Fprintf(w, "Installment premium   | %s (%s)\n", money(cmp.Delta), format.Percentage(cmp.DeltaPercentage))
			}

			if len(result.Schedule) > 0 {
				fmt.Fprintf(w, "Month | Value\n")
				fmt.Fprintf(w, "_____ | _____\n")
				for _, point := range result.Schedule {
					fmt.Fprintf(w, "%5d | %s\n", point.Month, money(point.OutstandingOrValue))
				}
			}
		}

		if result := outcome.Affordability; result != nil {
			fmt.Fprintf(w, "Monthly capacity      | %s\n", money(result.MaxMonthlyCapacity))
			fmt.Fprintf(w, "Max principal         | %s\n", money(result.MaxPrincipal))
			fmt.Fprintf(w, "Max rent              | %s\n", money(result.MaxRent))
			fmt.Fprintf(w, "Upfront payment       | %s\n", money(result.UpfrontPayment))
			fmt.Fprintf(w, "Qualifies             | %t\n", result.Qualifies)
		}

		for _, summary := range outcome.Optimizations {
			fmt.Fprintf(w, "Optimized %s: %.0f -> %.0f (installment %s, budget %s)\n",
				summary.Field, summary.Original, summary.Value, money(summary.Installment), money(summary.Budget))
			for _, note := range summary.Notes {
				fmt.Fprintf(w, "  %s\n", note)
			}
		}

		if len(outcome.Notes) > 0 {
			fmt.Fprintf(w, "Notes                 | %s\n", strings.Join(outcome.Notes, "; "))
		}
	}
}

// WriteCsv writes a header row followed by one row per outcome. Columns that
// do not apply to an outcome's kind are left empty.
func WriteCsv(w io.Writer, report engine.Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CsvHeader); err != nil {
		return err
	}

	for _, outcome := range report.Outcomes {
		row := make([]string, len(CsvHeader))
		row[0] = outcome.Name
		row[1] = outcome.Kind
		row[2] = outcome.Policy
		if result := outcome.Financing; result != nil {
			row[3] = amount(result.DepositAmount)
			row[4] = strconv.Itoa(result.TenureMonths)
			row[5] = amount(result.MonthlyInstallment)
			row[6] = amount(result.TotalInterest)
			row[7] = amount(result.TotalRepayable)
			row[8] = amount(outcome.ExtraUpfront)
		}
		row[9] = amount(outcome.UpfrontDue())
		if result := outcome.Affordability; result != nil {
			row[10] = amount(result.MaxMonthlyCapacity)
			row[11] = amount(result.MaxPrincipal)
			row[12] = amount(result.MaxRent)
			row[13] = strconv.FormatBool(result.Qualifies)
		}
		row[14] = strings.Join(outcome.Notes, "; ")

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func amount(value float64) string {
	return strconv.FormatFloat(value, 'f', constants.DecimalPlaces, 64)
}

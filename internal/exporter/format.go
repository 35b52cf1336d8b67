package exporter

import (
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"valuationcli/pkg/contracts/domain"
)

// PriceDecimals is the rounding applied to prices and Greeks in CSV output.
const PriceDecimals = 4

// formatFloat formats a value with exactly four decimal places. Non-finite
// values are written as NaN.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "NaN"
	}
	return decimal.NewFromFloat(f).StringFixed(PriceDecimals)
}

// formatEstimate writes -1 for an unavailable estimate
func formatEstimate(e domain.Estimate) string {
	if !e.OK {
		return strconv.Itoa(int(domain.Unavailable))
	}
	return formatFloat(e.Value)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatDate formats a calendar date, empty for the zero time
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

package valuation

import (
	"fmt"
	"math"

	"valuationcli/pkg/contracts/domain"
)

// Screen flags contracts whose theoretical price deviates from the last
// traded price. A nil threshold disables that side.
type Screen struct {
	PriceThreshold float64  `json:"price_threshold" yaml:"price_threshold" validate:"gte=0"`
	Premium        *float64 `json:"premium_threshold,omitempty" yaml:"premium_threshold"`
	Discount       *float64 `json:"discount_threshold,omitempty" yaml:"discount_threshold"`
}

// DefaultScreens returns the two standard screens: estimates at least 100%
// above a last price of 0.1 or more, and estimates at least 50% below a last
// price of 0.5 or more.
func DefaultScreens() []Screen {
	premium, discount := 1.0, -0.5
	return []Screen{
		{PriceThreshold: 0.1, Premium: &premium},
		{PriceThreshold: 0.5, Discount: &discount},
	}
}

// Name identifies the screen in output file names, e.g. bias_0.1_1_NaN.
func (s Screen) Name() string {
	return fmt.Sprintf("bias_%s_%s_%s", formatThreshold(&s.PriceThreshold), formatThreshold(s.Premium), formatThreshold(s.Discount))
}

func formatThreshold(v *float64) string {
	if v == nil {
		return "NaN"
	}
	return fmt.Sprintf("%g", *v)
}

// Diff returns the relative change (b-a)/a. Equal values give 0 and a zero
// base gives +Inf.
func Diff(a, b float64) float64 {
	if a == b {
		return 0
	}
	if a == 0 {
		return math.Inf(1)
	}
	return (b - a) / a
}

// OverDiff reports whether estimated deviates from last beyond the screen.
func OverDiff(last, estimated float64, s Screen) bool {
	if last <= 0 || estimated <= 0 || last < s.PriceThreshold {
		return false
	}
	d := Diff(last, estimated)
	return (s.Premium != nil && d >= *s.Premium) || (s.Discount != nil && d <= *s.Discount)
}

// Flagged reports whether any available theoretical price of c over-differs.
func (s Screen) Flagged(c domain.OptionContract) bool {
	if c.Valuation == nil {
		return false
	}
	for _, price := range c.Valuation.Prices() {
		if OverDiff(c.LastPrice, price, s) {
			return true
		}
	}
	return false
}

// Apply keeps the flagged contracts of every symbol and drops symbols with
// none.
func (s Screen) Apply(results []domain.SymbolValuation) []domain.SymbolValuation {
	var out []domain.SymbolValuation
	for _, r := range results {
		var kept []domain.OptionContract
		for _, c := range r.Contracts {
			if s.Flagged(c) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			continue
		}
		r.Contracts = kept
		out = append(out, r)
	}
	return out
}

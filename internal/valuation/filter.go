package valuation

import (
	"time"

	apperrors "valuationcli/internal/errors"
	"valuationcli/pkg/contracts/domain"
)

// Filter selects the contracts worth valuing. Zero limits disable their
// check.
type Filter struct {
	MinPrice      float64 `json:"min_price" validate:"gte=0"`
	OnlyOTM       bool    `json:"only_otm"`
	MinNextDays   int     `json:"min_next_days" validate:"gte=0"`
	MaxNextDays   int     `json:"max_next_days" validate:"gte=0"`
	MinVolume     int64   `json:"min_volume" validate:"gte=0"`
	LastTradeDays int     `json:"last_trade_days" validate:"gte=0"`

	// Contract, when set, keeps only the selected contract and bypasses
	// every other check.
	Contract *domain.ContractSelector `json:"-"`
}

// DefaultFilter returns the production thresholds.
func DefaultFilter() Filter {
	return Filter{
		MinPrice:      0.1,
		OnlyOTM:       true,
		MaxNextDays:   40,
		MinVolume:     5,
		LastTradeDays: 3,
	}
}

// Validate checks the struct tags.
func (f Filter) Validate() error {
	return apperrors.ValidateStruct("chain filter", f)
}

// Apply returns the contracts of chain that pass the filter at spot on asOf.
// Days are calendar days.
func (f Filter) Apply(chain []domain.OptionContract, spot float64, asOf time.Time) []domain.OptionContract {
	out := make([]domain.OptionContract, 0, len(chain))
	for _, c := range chain {
		if f.Keep(c, spot, asOf) {
			out = append(out, c)
		}
	}
	return out
}

// Keep reports whether a single contract passes.
func (f Filter) Keep(c domain.OptionContract, spot float64, asOf time.Time) bool {
	if f.Contract != nil {
		return f.Contract.Matches(c)
	}

	next := CalendarDaysBetween(asOf, c.Expiry)
	switch {
	case next < f.MinNextDays:
		return false
	case f.MaxNextDays > 0 && next > f.MaxNextDays:
		return false
	case c.LastPrice < f.MinPrice:
		return false
	case c.Volume < f.MinVolume:
		return false
	case f.OnlyOTM && !c.IsOTM(spot):
		return false
	}

	if f.LastTradeDays > 0 && !c.LastTradeDate.IsZero() &&
		CalendarDaysBetween(c.LastTradeDate, asOf) > f.LastTradeDays {
		return false
	}
	return true
}

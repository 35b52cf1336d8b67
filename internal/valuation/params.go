package valuation

import (
	apperrors "valuationcli/internal/errors"
	"valuationcli/internal/kelly"
	"valuationcli/internal/pricing"
	"valuationcli/internal/volatility"
)

// Params configure a valuation run.
type Params struct {
	RiskFreeRate    float64 `json:"risk_free_rate" validate:"gte=-1,lte=1"`
	DividendYield   float64 `json:"dividend_yield" validate:"gte=0,lte=1"`
	TradingDays     int     `json:"trading_days" validate:"gt=0"`
	VolWindow       int     `json:"vol_window" validate:"gte=2"`
	EWMALambda      float64 `json:"ewma_lambda" validate:"gte=0"`
	MCIterations    int     `json:"mc_iterations" validate:"gt=0"`
	BTSteps         int     `json:"bt_steps" validate:"gt=0"`
	KellyIterations int     `json:"kelly_iterations" validate:"gt=0"`
	// Seed makes runs reproducible. Zero seeds every symbol randomly.
	Seed        uint64 `json:"seed"`
	CalcKellyIV bool   `json:"calc_kelly_iv"`
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		RiskFreeRate:    0.0152,
		TradingDays:     volatility.DefaultTradingDays,
		VolWindow:       volatility.DefaultWindow,
		EWMALambda:      volatility.DefaultLambda,
		MCIterations:    pricing.DefaultIterations,
		BTSteps:         pricing.DefaultSteps,
		KellyIterations: kelly.DefaultIterations,
	}
}

// Validate checks the struct tags.
func (p Params) Validate() error {
	return apperrors.ValidateStruct("valuation params", p)
}

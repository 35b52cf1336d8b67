package app

import (
	"fmt"

	"valuationcli/internal/config"
	"valuationcli/internal/valuation"
	"valuationcli/pkg/contracts/domain"
)

// ValuationParams maps the valuation section onto engine parameters
func ValuationParams(cfg config.ValuationConfig) valuation.Params {
	return valuation.Params{
		RiskFreeRate:    cfg.RiskFreeRate,
		DividendYield:   cfg.DividendYield,
		TradingDays:     cfg.TradingDays,
		VolWindow:       cfg.VolWindow,
		EWMALambda:      cfg.EWMALambda,
		MCIterations:    cfg.MCIterations,
		BTSteps:         cfg.BTSteps,
		KellyIterations: cfg.KellyIterations,
		Seed:            cfg.Seed,
		CalcKellyIV:     cfg.CalcKellyIV,
	}
}

// ChainFilter maps the filter section, parsing the contract selector
func ChainFilter(cfg config.FilterConfig) (valuation.Filter, error) {
	f := valuation.Filter{
		MinPrice:      cfg.MinPrice,
		OnlyOTM:       cfg.OnlyOTM,
		MinNextDays:   cfg.MinNextDays,
		MaxNextDays:   cfg.MaxNextDays,
		MinVolume:     cfg.MinVolume,
		LastTradeDays: cfg.LastTradeDays,
	}
	if cfg.Contract != "" {
		sel, err := domain.ParseContractSelector(cfg.Contract)
		if err != nil {
			return valuation.Filter{}, fmt.Errorf("filter: %w", err)
		}
		f.Contract = &sel
	}
	if err := f.Validate(); err != nil {
		return valuation.Filter{}, err
	}
	return f, nil
}

// Screens maps the configured bias screens
func Screens(cfg []config.ScreenConfig) []valuation.Screen {
	screens := make([]valuation.Screen, 0, len(cfg))
	for _, s := range cfg {
		screens = append(screens, valuation.Screen{
			PriceThreshold: s.PriceThreshold,
			Premium:        s.Premium,
			Discount:       s.Discount,
		})
	}
	return screens
}

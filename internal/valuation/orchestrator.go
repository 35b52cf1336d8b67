package valuation

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"time"

	apperrors "valuationcli/internal/errors"
	"valuationcli/internal/kelly"
	"valuationcli/internal/pricing"
	"valuationcli/internal/returns"
	"valuationcli/internal/simulation"
	"valuationcli/internal/volatility"
	"valuationcli/pkg/contracts/domain"
)

// Orchestrator values option chains. It holds configuration only and is safe
// for concurrent use; every call builds its own random source.
type Orchestrator struct {
	params Params
	kelly  kelly.Estimator
	logger *slog.Logger
	now    func() time.Time
}

// NewOrchestrator validates params and returns an orchestrator.
func NewOrchestrator(params Params, logger *slog.Logger) (*Orchestrator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		params: params,
		kelly:  kelly.NewEstimator(params.KellyIterations),
		logger: logger.With(slog.String("component", "valuation")),
		now:    time.Now,
	}, nil
}

// Params returns the orchestrator configuration.
func (o *Orchestrator) Params() Params {
	return o.params
}

// Inputs are the per-symbol scalars derived from the price series.
type Inputs struct {
	Spot       float64
	PriceDate  time.Time
	Drift      float64
	Historical domain.VolatilityEstimate
	Average    domain.VolatilityEstimate
	EWMA       domain.VolatilityEstimate
}

// Estimate derives spot, drift and the three volatility estimates. A series
// too short for one volatility window is a COMPUTATION error.
func (o *Orchestrator) Estimate(series domain.PriceSeries) (Inputs, error) {
	if err := series.Validate(); err != nil {
		return Inputs{}, apperrors.NewAppError(apperrors.ErrTypeValidation, "price series", err).
			WithContext("symbol", series.Symbol)
	}

	closes := series.Closes()
	last, _ := series.Last()
	td := o.params.TradingDays
	window := o.params.VolWindow

	ewma, err := volatility.EWMA(closes, window, td, o.params.EWMALambda)
	if err != nil {
		return Inputs{}, apperrors.NewComputationError("ewma volatility", err).
			WithContext("symbol", series.Symbol).
			WithContext("observations", len(closes))
	}
	avg, err := volatility.Average(closes, window, td)
	if err != nil {
		return Inputs{}, apperrors.NewComputationError("average volatility", err).
			WithContext("symbol", series.Symbol)
	}
	hv, err := volatility.Historical(closes, td)
	if err != nil {
		return Inputs{}, apperrors.NewComputationError("historical volatility", err).
			WithContext("symbol", series.Symbol)
	}
	drift, err := returns.AnnualizedCompounded(closes)
	if err != nil {
		return Inputs{}, apperrors.NewComputationError("annualized return", err).
			WithContext("symbol", series.Symbol)
	}

	return Inputs{
		Spot:       last.Close,
		PriceDate:  last.Date,
		Drift:      drift,
		Historical: domain.VolatilityEstimate{Method: domain.VolatilityHistorical, Value: hv, TradingDays: td},
		Average:    domain.VolatilityEstimate{Method: domain.VolatilityAverage, Value: avg, Window: window, TradingDays: td},
		EWMA: domain.VolatilityEstimate{
			Method:      domain.VolatilityEWMA,
			Value:       ewma,
			Window:      window,
			Lambda:      o.params.EWMALambda,
			TradingDays: td,
		},
	}, nil
}

// Value annotates a copy of chain with valuation results. Contracts with no
// trading day left before expiry are kept without results and counted in
// Skipped. The context is checked between contracts.
func (o *Orchestrator) Value(ctx context.Context, series domain.PriceSeries, chain []domain.OptionContract) (domain.SymbolValuation, error) {
	in, err := o.Estimate(series)
	if err != nil {
		return domain.SymbolValuation{}, err
	}

	out := domain.SymbolValuation{
		Symbol:                  series.Symbol,
		StockPrice:              in.Spot,
		PriceDate:               in.PriceDate,
		UpdateTime:              o.now().UTC(),
		Drift:                   in.Drift,
		HistoricalVolatility:    in.Historical,
		AvgHistoricalVolatility: in.Average,
		EWMAVolatility:          in.EWMA,
		Contracts:               make([]domain.OptionContract, len(chain)),
	}
	copy(out.Contracts, chain)

	days := make([]int, len(chain))
	horizons := make([]int, 0, len(chain))
	for i, c := range out.Contracts {
		days[i] = TradingDaysBetween(in.PriceDate, c.Expiry)
		if days[i] > 0 {
			horizons = append(horizons, days[i])
		}
	}

	rng := o.symbolRand(series.Symbol)
	shared := o.sharedPaths(ctx, series.Symbol, in, horizons, rng)

	for i := range out.Contracts {
		if err := ctx.Err(); err != nil {
			return domain.SymbolValuation{}, fmt.Errorf("value %s: %w", series.Symbol, err)
		}

		c := &out.Contracts[i]
		if days[i] <= 0 {
			out.Skipped++
			o.logger.DebugContext(ctx, "skipping expired contract",
				slog.String("symbol", series.Symbol),
				slog.String("contract", c.Key()),
			)
			continue
		}

		c.Valuation = o.valueContract(ctx, in, *c, days[i], shared, rng)
	}

	o.logger.InfoContext(ctx, "valued option chain",
		slog.String("symbol", series.Symbol),
		slog.Int("contracts", len(chain)),
		slog.Int("skipped", out.Skipped),
		slog.Float64("ewma_volatility", in.EWMA.Value),
		slog.Float64("drift", in.Drift),
	)
	return out, nil
}

// scenarioPaths hold the simulated prices shared by every contract of a
// chain, kept only on the chain's expiry offsets.
type scenarioPaths map[kelly.Scenario]simulation.Horizons

func (o *Orchestrator) sharedPaths(ctx context.Context, symbol string, in Inputs, horizons []int, rng *rand.Rand) scenarioPaths {
	shared := make(scenarioPaths, 2)
	if len(horizons) == 0 {
		return shared
	}
	for _, sc := range []struct {
		scenario kelly.Scenario
		mu       float64
	}{
		{kelly.Historical, in.Drift},
		{kelly.ZeroDrift, 0},
	} {
		scenario := sc.scenario
		paths, err := o.kelly.Shared(in.Spot, sc.mu, in.EWMA.Value, horizons, rng)
		if err != nil {
			o.logger.WarnContext(ctx, "kelly simulation failed",
				slog.String("symbol", symbol),
				slog.String("scenario", string(scenario)),
				slog.String("error", err.Error()),
			)
			continue
		}
		shared[scenario] = paths
	}
	return shared
}

func (o *Orchestrator) valueContract(ctx context.Context, in Inputs, c domain.OptionContract, days int, shared scenarioPaths, rng *rand.Rand) *domain.ValuationResult {
	style := c.Style
	if style == "" {
		style = domain.American
	}
	p := pricing.Params{
		Style:    style,
		Kind:     c.Kind,
		Spot:     in.Spot,
		Strike:   c.Strike,
		T:        float64(days) / float64(o.params.TradingDays),
		Rate:     o.params.RiskFreeRate,
		Sigma:    in.EWMA.Value,
		Dividend: o.params.DividendYield,
	}

	res := &domain.ValuationResult{
		DaysToExpiry:   days,
		TimeToMaturity: p.T,
		Volatility:     p.Sigma,
		Kelly:          make(map[string]float64, 6),
	}

	res.BSM = o.field(ctx, c, "bsm", func() (float64, error) { return pricing.BlackScholes(p) })
	res.MonteCarlo = o.field(ctx, c, "monte_carlo", func() (float64, error) {
		return pricing.MonteCarlo(p, o.params.MCIterations, rng)
	})
	res.BinomialTree = o.field(ctx, c, "binomial_tree", func() (float64, error) {
		return pricing.BinomialTree(p, o.params.BTSteps)
	})

	if g, err := pricing.ComputeGreeks(p); err == nil {
		res.Delta = domain.Available(g.Delta)
		res.Gamma = domain.Available(g.Gamma)
		res.Vega = domain.Available(g.Vega)
		res.Theta = domain.Available(g.Theta)
		res.Rho = domain.Available(g.Rho)
	} else {
		o.unavailable(ctx, c, "greeks", err)
	}

	for _, scenario := range []kelly.Scenario{kelly.Historical, kelly.ZeroDrift} {
		paths, ok := shared[scenario]
		if !ok {
			markUnavailable(res.Kelly, scenario)
			continue
		}
		o.mergeEdges(ctx, c, res.Kelly, scenario, func() (map[string]float64, error) {
			return o.kelly.Contract(scenario, paths, days, c)
		})
	}

	if o.params.CalcKellyIV {
		o.mergeEdges(ctx, c, res.Kelly, kelly.ImpliedVol, func() (map[string]float64, error) {
			sigma, err := o.impliedVol(p, c)
			if err != nil {
				return nil, err
			}
			return o.kelly.ImpliedVolContract(in.Spot, sigma, days, c, rng)
		})
	}

	return res
}

// impliedVol returns the contract's quoted implied volatility, or the one
// solved from its last price when none is quoted.
func (o *Orchestrator) impliedVol(p pricing.Params, c domain.OptionContract) (float64, error) {
	if c.ImpliedVolatility > 0 {
		return c.ImpliedVolatility, nil
	}
	return pricing.ImpliedVolatility(p, c.LastPrice)
}

func (o *Orchestrator) field(ctx context.Context, c domain.OptionContract, name string, fn func() (float64, error)) domain.Estimate {
	v, err := fn()
	if err != nil {
		o.unavailable(ctx, c, name, err)
		return domain.Estimate{}
	}
	return domain.Available(v)
}

func (o *Orchestrator) mergeEdges(ctx context.Context, c domain.OptionContract, dst map[string]float64, s kelly.Scenario, fn func() (map[string]float64, error)) {
	edges, err := fn()
	if err != nil {
		o.unavailable(ctx, c, string(s), err)
		markUnavailable(dst, s)
		return
	}
	for k, v := range edges {
		dst[k] = v
	}
}

func (o *Orchestrator) unavailable(ctx context.Context, c domain.OptionContract, field string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, pricing.ErrUnsupported) {
		level = slog.LevelDebug
	}
	o.logger.Log(ctx, level, "valuation field unavailable",
		slog.String("contract", c.Key()),
		slog.String("field", field),
		slog.String("error", err.Error()),
	)
}

func markUnavailable(dst map[string]float64, s kelly.Scenario) {
	dst[s.Key(kelly.Buy)] = domain.Unavailable
	dst[s.Key(kelly.Sell)] = domain.Unavailable
}

// symbolRand returns the generator for one symbol. With a fixed seed every
// symbol gets its own reproducible stream.
func (o *Orchestrator) symbolRand(symbol string) *rand.Rand {
	if o.params.Seed == 0 {
		return simulation.NewRand(0)
	}
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return simulation.NewRand(o.params.Seed ^ h.Sum64())
}

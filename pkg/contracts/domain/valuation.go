package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Unavailable is the wire value of a valuation field that could not be
// computed: invalid inputs, unsupported configurations or non-finite results.
const Unavailable = -1.0

// Estimate is a single valuation field. A zero Estimate is unavailable.
type Estimate struct {
	Value float64
	OK    bool
}

// Available wraps a computed value. Non-finite values are unavailable.
func Available(v float64) Estimate {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Estimate{}
	}
	return Estimate{Value: v, OK: true}
}

// Float64 returns the value, or Unavailable.
func (e Estimate) Float64() float64 {
	if !e.OK {
		return Unavailable
	}
	return e.Value
}

// MarshalJSON encodes the estimate as a bare number, -1 when unavailable.
func (e Estimate) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Float64())
}

// Valuation output keys.
const (
	KeyBSM          = "BSM_EWMAHisVol"
	KeyMonteCarlo   = "MC_EWMAHisVol"
	KeyBinomialTree = "BT_EWMAHisVol"
)

// ValuationResult holds the theoretical prices, Greeks and Kelly edges of one
// contract. It is computed once by the orchestrator and read-only afterwards.
type ValuationResult struct {
	DaysToExpiry   int
	TimeToMaturity float64
	Volatility     float64

	BSM          Estimate
	MonteCarlo   Estimate
	BinomialTree Estimate

	Delta Estimate
	Gamma Estimate
	Vega  Estimate
	Theta Estimate
	Rho   Estimate

	// Kelly is keyed {Scenario}_buy / {Scenario}_sell.
	Kelly map[string]float64
}

// MarshalJSON flattens prices, Greeks and Kelly edges into one object.
func (v ValuationResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 11+len(v.Kelly))
	out["daysToExpiry"] = v.DaysToExpiry
	out["timeToMaturity"] = v.TimeToMaturity
	out["volatility"] = v.Volatility
	out[KeyBSM] = v.BSM
	out[KeyMonteCarlo] = v.MonteCarlo
	out[KeyBinomialTree] = v.BinomialTree
	out["delta"] = v.Delta
	out["gamma"] = v.Gamma
	out["vega"] = v.Vega
	out["theta"] = v.Theta
	out["rho"] = v.Rho
	for k, edge := range v.Kelly {
		out[k] = edge
	}
	return json.Marshal(out)
}

// Prices returns the available theoretical prices keyed by output name.
func (v ValuationResult) Prices() map[string]float64 {
	prices := make(map[string]float64, 3)
	for key, e := range map[string]Estimate{
		KeyBSM:          v.BSM,
		KeyMonteCarlo:   v.MonteCarlo,
		KeyBinomialTree: v.BinomialTree,
	} {
		if e.OK {
			prices[key] = e.Value
		}
	}
	return prices
}

// VolatilityMethod names the estimator behind a VolatilityEstimate.
type VolatilityMethod string

const (
	VolatilityHistorical VolatilityMethod = "historical"
	VolatilityAverage    VolatilityMethod = "average"
	VolatilityEWMA       VolatilityMethod = "ewma"
)

// VolatilityEstimate is an annualized volatility tagged with how it was made.
type VolatilityEstimate struct {
	Method      VolatilityMethod `json:"method"`
	Value       float64          `json:"value"`
	Window      int              `json:"window,omitempty"`
	Lambda      float64          `json:"lambda,omitempty"`
	TradingDays int              `json:"tradingDays"`
}

// SymbolValuation is the orchestrator output for one symbol.
type SymbolValuation struct {
	Symbol                  string             `json:"symbol"`
	StockPrice              float64            `json:"stockPrice"`
	PriceDate               time.Time          `json:"priceDate"`
	UpdateTime              time.Time          `json:"update_time"`
	Drift                   float64            `json:"drift"`
	HistoricalVolatility    VolatilityEstimate `json:"historicalVolatility"`
	AvgHistoricalVolatility VolatilityEstimate `json:"avgHistoricalVolatility"`
	EWMAVolatility          VolatilityEstimate `json:"EWMA_historicalVolatility"`
	Contracts               []OptionContract   `json:"contracts"`
	Skipped                 int                `json:"skipped"`
}

// PutCallRatio summarizes put versus call activity of a chain.
type PutCallRatio struct {
	Symbol            string   `json:"symbol"`
	CallVolume        int64    `json:"callTotalVolume"`
	PutVolume         int64    `json:"putTotalVolume"`
	CallOpenInterest  int64    `json:"callTotalOpenInterest"`
	PutOpenInterest   int64    `json:"putTotalOpenInterest"`
	VolumeRatio       Estimate `json:"PCR_Volume"`
	OpenInterestRatio Estimate `json:"PCR_OpenInterest"`
}

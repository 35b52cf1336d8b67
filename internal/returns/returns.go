// Package returns computes compounded return statistics of a close series.
// The annualized figure is the drift input of the Kelly simulations.
package returns

import (
	"errors"
	"fmt"
	"math"
)

// TradingDaysPerYear annualizes AnnualizedCompounded.
const TradingDaysPerYear = 252

var (
	// ErrEmptySeries is returned when no prices are supplied.
	ErrEmptySeries = errors.New("empty price series")
	// ErrInvalidPrice is returned for non-positive or non-finite prices.
	ErrInvalidPrice = errors.New("invalid price")
)

// Compounded returns (p[last] - p[0]) / p[0].
func Compounded(prices []float64) (float64, error) {
	if err := validate(prices); err != nil {
		return 0, err
	}
	first, last := prices[0], prices[len(prices)-1]
	return (last - first) / first, nil
}

// CompoundedSeries returns exp(cumsum(log returns)) - 1 with the same length
// as prices. The first element is 0.
func CompoundedSeries(prices []float64) ([]float64, error) {
	if err := validate(prices); err != nil {
		return nil, err
	}

	out := make([]float64, len(prices))
	var cum float64
	for i := 1; i < len(prices); i++ {
		cum += math.Log(prices[i] / prices[i-1])
		out[i] = math.Exp(cum) - 1
	}
	return out, nil
}

// AnnualizedCompounded returns (1 + Compounded)^(252/n) - 1, n being the
// number of observations.
func AnnualizedCompounded(prices []float64) (float64, error) {
	total, err := Compounded(prices)
	if err != nil {
		return 0, err
	}
	return math.Pow(1+total, TradingDaysPerYear/float64(len(prices))) - 1, nil
}

func validate(prices []float64) error {
	if len(prices) == 0 {
		return ErrEmptySeries
	}
	for i, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return fmt.Errorf("price %v at index %d: %w", p, i, ErrInvalidPrice)
		}
	}
	return nil
}

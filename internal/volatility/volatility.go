// Package volatility estimates annualized historical volatility from a close
// price series: a single-window estimate, the average over sliding windows and
// an exponentially weighted (EWMA) blend of the same windows.
package volatility

import (
	"errors"
	"fmt"
	"math"
)

// DefaultTradingDays is the annualization factor used across the engine.
const DefaultTradingDays = 252

// DefaultWindow is the number of returns per sliding window.
const DefaultWindow = 21

// DefaultLambda is the EWMA decay factor.
const DefaultLambda = 0.94

// maxLambda replaces any lambda >= 1 so that 1-lambda^n stays non-zero.
var maxLambda = math.Nextafter(1, 0)

var (
	// ErrInsufficientData is returned when the series is too short for the
	// requested estimate.
	ErrInsufficientData = errors.New("insufficient price data")
	// ErrInvalidPrice is returned for non-positive or non-finite prices.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrInvalidParameter is returned for unusable window, trading day or
	// lambda settings.
	ErrInvalidParameter = errors.New("invalid volatility parameter")
)

// Historical returns sqrt(tradingDays * var(log returns)) using the sample
// variance. At least two prices are required; with exactly two prices there
// is a single return and the result is NaN.
func Historical(prices []float64, tradingDays int) (float64, error) {
	if len(prices) < 2 {
		return 0, fmt.Errorf("historical volatility needs at least 2 prices, got %d: %w", len(prices), ErrInsufficientData)
	}
	if tradingDays <= 0 {
		return 0, fmt.Errorf("trading days %d: %w", tradingDays, ErrInvalidParameter)
	}
	if err := validatePrices(prices); err != nil {
		return 0, err
	}
	return historical(prices, tradingDays), nil
}

// Average returns the mean of Historical over every window of window+1
// consecutive prices. The number of windows is len(prices)-window.
func Average(prices []float64, window, tradingDays int) (float64, error) {
	vols, err := windowVolatilities(prices, window, tradingDays)
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, v := range vols {
		sum += v
	}
	return sum / float64(len(vols)), nil
}

// EWMA weights the sliding-window volatilities of Average with
// lambda^(n-i-1) * (1-lambda) / (1-lambda^n), i = 0 for the oldest window.
// Lambda >= 1 is clamped just below 1, where the result approaches Average;
// lambda = 0 returns the most recent window's volatility.
func EWMA(prices []float64, window, tradingDays int, lambda float64) (float64, error) {
	if math.IsNaN(lambda) || lambda < 0 {
		return 0, fmt.Errorf("lambda %v: %w", lambda, ErrInvalidParameter)
	}
	if lambda >= 1 {
		lambda = maxLambda
	}

	vols, err := windowVolatilities(prices, window, tradingDays)
	if err != nil {
		return 0, err
	}

	n := len(vols)
	norm := (1 - lambda) / (1 - math.Pow(lambda, float64(n)))

	var out float64
	for i, v := range vols {
		out += math.Pow(lambda, float64(n-i-1)) * norm * v
	}
	return out, nil
}

// Windows returns the number of sliding windows Average and EWMA use.
func Windows(n, window int) int {
	return n - window
}

func windowVolatilities(prices []float64, window, tradingDays int) ([]float64, error) {
	if window < 2 {
		return nil, fmt.Errorf("window %d must be at least 2: %w", window, ErrInvalidParameter)
	}
	if tradingDays <= 0 {
		return nil, fmt.Errorf("trading days %d: %w", tradingDays, ErrInvalidParameter)
	}

	count := Windows(len(prices), window)
	if count <= 0 {
		return nil, fmt.Errorf("window %d needs at least %d prices, got %d: %w",
			window, window+1, len(prices), ErrInsufficientData)
	}
	if err := validatePrices(prices); err != nil {
		return nil, err
	}

	vols := make([]float64, count)
	for i := range vols {
		vols[i] = historical(prices[i:i+window+1], tradingDays)
	}
	return vols, nil
}

func historical(prices []float64, tradingDays int) float64 {
	n := len(prices) - 1
	if n < 2 {
		return math.NaN()
	}

	returns := make([]float64, n)
	var mean float64
	for i := 1; i < len(prices); i++ {
		returns[i-1] = math.Log(prices[i] / prices[i-1])
		mean += returns[i-1]
	}
	mean /= float64(n)

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	return math.Sqrt(float64(tradingDays) * ss / float64(n-1))
}

func validatePrices(prices []float64) error {
	for i, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return fmt.Errorf("price %v at index %d: %w", p, i, ErrInvalidPrice)
		}
	}
	return nil
}

package pricing

import (
	"fmt"
	"math"
)

const (
	minImpliedVol = 1e-4
	maxImpliedVol = 5.0
	ivTolerance   = 1e-8
	ivMaxIter     = 100
)

// ImpliedVolatility solves the European closed form for the volatility that
// reproduces price. Newton steps on vega are used while they stay inside the
// bracket [1e-4, 5]; otherwise the bracket is bisected. p.Sigma is the
// starting guess when positive. Prices outside the no-arbitrage range of the
// bracket return ErrNoSolution.
func ImpliedVolatility(p Params, price float64) (float64, error) {
	if p.Sigma <= 0 || !finite(p.Sigma) {
		p.Sigma = 0.3
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if !finite(price) || price <= 0 {
		return 0, fmt.Errorf("option price %v: %w", price, ErrInvalidInput)
	}

	f := func(sigma float64) float64 {
		q := p
		q.Sigma = sigma
		return blackScholes(q) - price
	}

	lo, hi := minImpliedVol, maxImpliedVol
	fLo, fHi := f(lo), f(hi)
	if fLo > 0 || fHi < 0 {
		return 0, fmt.Errorf("price %v outside [%v, %v]: %w", price, fLo+price, fHi+price, ErrNoSolution)
	}

	sigma := math.Min(math.Max(p.Sigma, lo), hi)
	for i := 0; i < ivMaxIter; i++ {
		diff := f(sigma)
		if math.Abs(diff) < ivTolerance {
			return sigma, nil
		}
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}

		q := p
		q.Sigma = sigma
		next := sigma
		if v := rawVega(q); v > 1e-12 {
			next = sigma - diff/v
		}
		if next <= lo || next >= hi || next == sigma {
			next = 0.5 * (lo + hi)
		}
		sigma = next

		if hi-lo < ivTolerance {
			return sigma, nil
		}
	}

	return 0, fmt.Errorf("implied volatility did not converge for price %v: %w", price, ErrNoSolution)
}

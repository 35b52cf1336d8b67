package pricing

import (
	"fmt"
	"math"
)

// D1 returns (ln(s0/k) + (r - q + sigma^2/2)t) / (sigma*sqrt(t)).
func D1(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return d1(p), nil
}

// D2 returns D1 - sigma*sqrt(t).
func D2(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return d1(p) - p.Sigma*math.Sqrt(p.T), nil
}

func d1(p Params) float64 {
	return (math.Log(p.Spot/p.Strike) + (p.Rate-p.Dividend+0.5*p.Sigma*p.Sigma)*p.T) / (p.Sigma * math.Sqrt(p.T))
}

// BlackScholes prices the contract with the Merton closed form
// kind*s0*e^(-qt)*N(kind*d1) - kind*k*e^(-rt)*N(kind*d2).
// American puts return ErrUnsupported.
func BlackScholes(p Params) (float64, error) {
	if !p.closedFormSupported() {
		return 0, fmt.Errorf("black-scholes %s %s: %w", p.Style, p.Kind, ErrUnsupported)
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return checkResult("black-scholes", blackScholes(p))
}

func blackScholes(p Params) float64 {
	kind := p.Kind.Sign()
	a := d1(p)
	b := a - p.Sigma*math.Sqrt(p.T)
	return kind*p.Spot*math.Exp(-p.Dividend*p.T)*normCDF(kind*a) -
		kind*p.Strike*math.Exp(-p.Rate*p.T)*normCDF(kind*b)
}

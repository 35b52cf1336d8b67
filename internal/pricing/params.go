package pricing

import (
	"errors"
	"fmt"
	"math"

	"valuationcli/pkg/contracts/domain"
)

var (
	// ErrInvalidInput is returned for non-finite, non-positive or otherwise
	// unusable pricing inputs.
	ErrInvalidInput = errors.New("invalid pricing input")
	// ErrUnsupported is returned when a method cannot price the contract
	// style, e.g. an American put with the closed form.
	ErrUnsupported = errors.New("unsupported option configuration")
	// ErrNoSolution is returned when no volatility reproduces a price.
	ErrNoSolution = errors.New("no implied volatility solution")
)

// Params are the inputs shared by every pricing method.
type Params struct {
	Style    domain.ExerciseStyle
	Kind     domain.OptionKind
	Spot     float64 // s0
	Strike   float64 // k
	T        float64 // years to maturity
	Rate     float64 // continuously compounded risk-free rate
	Sigma    float64 // annualized volatility
	Dividend float64 // continuous dividend yield
}

// Validate rejects inputs the closed forms cannot handle.
func (p Params) Validate() error {
	switch {
	case p.Kind != domain.Call && p.Kind != domain.Put:
		return fmt.Errorf("kind %d: %w", int(p.Kind), ErrInvalidInput)
	case !finite(p.Spot) || p.Spot <= 0:
		return fmt.Errorf("spot %v: %w", p.Spot, ErrInvalidInput)
	case !finite(p.Strike) || p.Strike <= 0:
		return fmt.Errorf("strike %v: %w", p.Strike, ErrInvalidInput)
	case !finite(p.T) || p.T <= 0:
		return fmt.Errorf("time to maturity %v: %w", p.T, ErrInvalidInput)
	case !finite(p.Sigma) || p.Sigma <= 0:
		return fmt.Errorf("volatility %v: %w", p.Sigma, ErrInvalidInput)
	case !finite(p.Rate):
		return fmt.Errorf("rate %v: %w", p.Rate, ErrInvalidInput)
	case !finite(p.Dividend):
		return fmt.Errorf("dividend yield %v: %w", p.Dividend, ErrInvalidInput)
	}
	return nil
}

// closedFormSupported reports whether the European formulas apply. An
// American call on a dividend-free underlying is never exercised early, and
// calls are priced with the same formula when a yield is present.
func (p Params) closedFormSupported() bool {
	return p.Style.IsEuropean() || p.Kind == domain.Call
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// checkResult turns a non-finite computation into ErrInvalidInput.
func checkResult(name string, v float64) (float64, error) {
	if !finite(v) {
		return 0, fmt.Errorf("%s evaluated to %v: %w", name, v, ErrInvalidInput)
	}
	return v, nil
}

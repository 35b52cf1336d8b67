package pricing

import (
	"fmt"
	"math"
	"math/rand/v2"

	"valuationcli/internal/simulation"
)

// DefaultIterations is the Monte Carlo sample size.
const DefaultIterations = 1_000_000

// MonteCarlo estimates the discounted expected payoff
// max(kind*(S_T - k), 0) * e^(-rt) from single-step risk-neutral draws
// S_T = s0*exp((r - q - sigma^2/2)t + sigma*sqrt(t)*Z). American puts return
// ErrUnsupported. A nil rng is replaced by a randomly seeded one.
func MonteCarlo(p Params, iterations int, rng *rand.Rand) (float64, error) {
	if !p.closedFormSupported() {
		return 0, fmt.Errorf("monte carlo %s %s: %w", p.Style, p.Kind, ErrUnsupported)
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if iterations < 1 {
		return 0, fmt.Errorf("iterations %d: %w", iterations, ErrInvalidInput)
	}

	terminal, err := simulation.TerminalPrices(p.Spot, p.Rate-p.Dividend, p.Sigma, p.T, iterations, rng)
	if err != nil {
		return 0, fmt.Errorf("monte carlo: %w: %w", ErrInvalidInput, err)
	}

	kind := p.Kind.Sign()
	var sum float64
	for _, s := range terminal {
		sum += math.Max(kind*(s-p.Strike), 0)
	}
	return checkResult("monte carlo", sum/float64(iterations)*math.Exp(-p.Rate*p.T))
}

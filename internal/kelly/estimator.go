package kelly

import (
	"fmt"
	"math/rand/v2"

	"valuationcli/internal/simulation"
	"valuationcli/pkg/contracts/domain"
)

// DefaultIterations is the number of simulated paths per scenario.
const DefaultIterations = 100_000

// Estimator runs the simulations behind each scenario.
type Estimator struct {
	Iterations int
	Step       float64 // years per simulated day
}

// NewEstimator returns an estimator with daily steps. Non-positive
// iterations fall back to DefaultIterations.
func NewEstimator(iterations int) Estimator {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return Estimator{Iterations: iterations, Step: simulation.DailyStep}
}

// Shared runs one simulation for a chain and keeps the prices on each of
// days. Contracts read the column of their own expiry offset.
func (e Estimator) Shared(s0, mu, sigma float64, days []int, rng *rand.Rand) (simulation.Horizons, error) {
	h, err := simulation.SimulateHorizons(s0, mu, sigma, days, e.Step, e.Iterations, rng)
	if err != nil {
		return simulation.Horizons{}, fmt.Errorf("kelly shared simulation: %w", err)
	}
	return h, nil
}

// Contract evaluates one contract against the day column of shared paths.
func (e Estimator) Contract(s Scenario, h simulation.Horizons, days int, c domain.OptionContract) (map[string]float64, error) {
	col, ok := h.Column(days)
	if !ok {
		return nil, fmt.Errorf("day %d not simulated: %w", days, ErrInvalidInput)
	}
	return Edges(s, col, c.Strike, c.LastPrice, c.Kind)
}

// ImpliedVolContract re-simulates with zero drift at sigma for one contract
// and evaluates the ImpliedVol scenario.
func (e Estimator) ImpliedVolContract(s0, sigma float64, days int, c domain.OptionContract, rng *rand.Rand) (map[string]float64, error) {
	if days < 1 {
		return nil, fmt.Errorf("days %d: %w", days, ErrInvalidInput)
	}
	if !finite(sigma) || sigma <= 0 {
		return nil, fmt.Errorf("implied volatility %v: %w", sigma, ErrInvalidInput)
	}
	h, err := simulation.SimulateHorizons(s0, 0, sigma, []int{days}, e.Step, e.Iterations, rng)
	if err != nil {
		return nil, fmt.Errorf("kelly implied vol simulation: %w", err)
	}
	terminal, _ := h.Column(days)
	return Edges(ImpliedVol, terminal, c.Strike, c.LastPrice, c.Kind)
}

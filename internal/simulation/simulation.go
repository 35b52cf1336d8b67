// Package simulation generates geometric Brownian motion price paths. Every
// call draws from the generator it is handed, so concurrent callers never
// share random state.
package simulation

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// DailyStep is one trading day expressed in years.
const DailyStep = 1.0 / 252

// ErrInvalidInput is returned for non-finite or out-of-range parameters.
var ErrInvalidInput = errors.New("invalid simulation input")

// NewRand returns a PCG-backed generator. A zero seed yields a randomly
// seeded generator whose runs are not reproducible.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Paths is a matrix [iteration][day] of simulated prices. Column 0 holds the
// starting price.
type Paths [][]float64

// Iterations returns the number of simulated paths.
func (p Paths) Iterations() int {
	return len(p)
}

// Days returns the number of simulated steps after the start.
func (p Paths) Days() int {
	if len(p) == 0 {
		return 0
	}
	return len(p[0]) - 1
}

// Column returns the simulated prices of every path on day. Days past the
// horizon are clamped to the last column.
func (p Paths) Column(day int) []float64 {
	if len(p) == 0 {
		return nil
	}
	if day < 0 {
		day = 0
	}
	if last := p.Days(); day > last {
		day = last
	}
	col := make([]float64, len(p))
	for i, path := range p {
		col[i] = path[day]
	}
	return col
}

// Terminal returns the last column.
func (p Paths) Terminal() []float64 {
	return p.Column(p.Days())
}

// SimulatePricePaths steps S[d] = S[d-1] * exp((mu - sigma^2/2)dt + sigma*sqrt(dt)*Z)
// with independent standard normal draws per step and path. A nil rng is
// replaced by a randomly seeded one.
func SimulatePricePaths(s0, mu, sigma float64, days int, dt float64, iterations int, rng *rand.Rand) (Paths, error) {
	if err := validate(s0, mu, sigma, days, dt, iterations); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand(0)
	}

	drift := (mu - 0.5*sigma*sigma) * dt
	diffusion := sigma * math.Sqrt(dt)

	// one backing array keeps the matrix contiguous
	backing := make([]float64, iterations*(days+1))
	paths := make(Paths, iterations)
	for i := range paths {
		row := backing[i*(days+1) : (i+1)*(days+1) : (i+1)*(days+1)]
		row[0] = s0
		for d := 1; d <= days; d++ {
			row[d] = row[d-1] * math.Exp(drift+diffusion*rng.NormFloat64())
		}
		paths[i] = row
	}
	return paths, nil
}

// Horizons holds the simulated prices of every path on selected days only.
type Horizons struct {
	days []int
	cols map[int][]float64
}

// Days returns the kept days in ascending order.
func (h Horizons) Days() []int {
	return slices.Clone(h.days)
}

// Last returns the furthest kept day, or 0 when nothing was simulated.
func (h Horizons) Last() int {
	if len(h.days) == 0 {
		return 0
	}
	return h.days[len(h.days)-1]
}

// Column returns the prices of every path on day, if that day was kept.
func (h Horizons) Column(day int) ([]float64, bool) {
	col, ok := h.cols[day]
	return col, ok
}

// SimulateHorizons steps the same process as SimulatePricePaths, draw for
// draw, but keeps one column per requested day instead of the whole matrix.
// Memory grows with the number of distinct days, not with the horizon.
func SimulateHorizons(s0, mu, sigma float64, days []int, dt float64, iterations int, rng *rand.Rand) (Horizons, error) {
	if len(days) == 0 {
		return Horizons{}, fmt.Errorf("no horizons: %w", ErrInvalidInput)
	}
	kept := slices.Clone(days)
	slices.Sort(kept)
	kept = slices.Compact(kept)
	if kept[0] < 1 {
		return Horizons{}, fmt.Errorf("horizon day %d: %w", kept[0], ErrInvalidInput)
	}
	last := kept[len(kept)-1]
	if err := validate(s0, mu, sigma, last, dt, iterations); err != nil {
		return Horizons{}, err
	}
	if rng == nil {
		rng = NewRand(0)
	}

	h := Horizons{days: kept, cols: make(map[int][]float64, len(kept))}
	for _, d := range kept {
		h.cols[d] = make([]float64, iterations)
	}

	drift := (mu - 0.5*sigma*sigma) * dt
	diffusion := sigma * math.Sqrt(dt)
	for i := 0; i < iterations; i++ {
		price := s0
		next := 0
		for d := 1; d <= last; d++ {
			price = price * math.Exp(drift+diffusion*rng.NormFloat64())
			if d == kept[next] {
				h.cols[d][i] = price
				next++
			}
		}
	}
	return h, nil
}

// TerminalPrices draws only the price after a single step of length t,
// S_T = s0 * exp((mu - sigma^2/2)t + sigma*sqrt(t)*Z).
func TerminalPrices(s0, mu, sigma, t float64, iterations int, rng *rand.Rand) ([]float64, error) {
	if err := validate(s0, mu, sigma, 1, t, iterations); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand(0)
	}

	drift := (mu - 0.5*sigma*sigma) * t
	diffusion := sigma * math.Sqrt(t)
	out := make([]float64, iterations)
	for i := range out {
		out[i] = s0 * math.Exp(drift+diffusion*rng.NormFloat64())
	}
	return out, nil
}

func validate(s0, mu, sigma float64, days int, dt float64, iterations int) error {
	switch {
	case !finite(s0) || s0 <= 0:
		return fmt.Errorf("spot %v: %w", s0, ErrInvalidInput)
	case !finite(mu):
		return fmt.Errorf("drift %v: %w", mu, ErrInvalidInput)
	case !finite(sigma) || sigma < 0:
		return fmt.Errorf("volatility %v: %w", sigma, ErrInvalidInput)
	case days < 0:
		return fmt.Errorf("days %d: %w", days, ErrInvalidInput)
	case !finite(dt) || dt <= 0:
		return fmt.Errorf("time step %v: %w", dt, ErrInvalidInput)
	case iterations < 1:
		return fmt.Errorf("iterations %d: %w", iterations, ErrInvalidInput)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Package kelly sizes option trades with the Kelly criterion. Terminal prices
// simulated for the contract's expiry are split into payoff buckets, and the
// win probability and total win/loss ratio of each side give the edge
// p - q/b for buying and for selling the contract.
package kelly

import (
	"errors"
	"fmt"
	"math"

	"valuationcli/pkg/contracts/domain"
)

// DegenerateEdge marks an edge that is undefined because the simulated wins
// are all zero. It is distinct from a computed edge of zero.
const DegenerateEdge = float64(math.MinInt32)

var (
	// ErrDegenerateEdge accompanies DegenerateEdge.
	ErrDegenerateEdge = errors.New("degenerate kelly edge: zero win/loss ratio")
	// ErrInvalidInput is returned for empty distributions or unusable contract terms.
	ErrInvalidInput = errors.New("invalid kelly input")
)

// Direction is the side of the trade.
type Direction int

const (
	Buy Direction = iota
	Sell
)

// String returns "buy" or "sell".
func (d Direction) String() string {
	if d == Sell {
		return "sell"
	}
	return "buy"
}

// Scenario names a drift and volatility regime used for the simulation.
type Scenario string

const (
	// Historical drifts at the annualized compounded return with EWMA volatility.
	Historical Scenario = "KellyCriterion"
	// ZeroDrift keeps the EWMA volatility but forces the drift to zero.
	ZeroDrift Scenario = "KellyCriterion_MU_0"
	// ImpliedVol uses zero drift and the contract's implied volatility.
	ImpliedVol Scenario = "KellyCriterion_IV"
)

// Key returns the output key {Scenario}_{direction}.
func (s Scenario) Key(d Direction) string {
	return string(s) + "_" + d.String()
}

// Buckets aggregates the payoffs of a terminal price distribution. Only
// non-zero payoffs are counted.
//
// With breakeven B = k + kind*premium:
//   - gain: kind*P > kind*B, payoff kind*(P - B)
//   - partial loss: kind*k < kind*P <= kind*B, payoff kind*(B - P)
//   - fixed loss: kind*P <= kind*k, payoff premium
type Buckets struct {
	Total        int
	GainSum      float64
	GainCount    int
	PartialSum   float64
	PartialCount int
	FixedSum     float64
	FixedCount   int
}

// Classify buckets every terminal price for a contract bought at premium.
func Classify(terminal []float64, strike, premium float64, kind domain.OptionKind) (Buckets, error) {
	switch {
	case len(terminal) == 0:
		return Buckets{}, fmt.Errorf("empty terminal distribution: %w", ErrInvalidInput)
	case kind != domain.Call && kind != domain.Put:
		return Buckets{}, fmt.Errorf("kind %d: %w", int(kind), ErrInvalidInput)
	case !finite(strike) || strike <= 0:
		return Buckets{}, fmt.Errorf("strike %v: %w", strike, ErrInvalidInput)
	case !finite(premium) || premium < 0:
		return Buckets{}, fmt.Errorf("premium %v: %w", premium, ErrInvalidInput)
	}

	k := kind.Sign()
	breakeven := strike + k*premium
	b := Buckets{Total: len(terminal)}
	for _, p := range terminal {
		var payoff float64
		switch {
		case k*p > k*breakeven:
			payoff = k * (p - breakeven)
			if payoff != 0 {
				b.GainSum += payoff
				b.GainCount++
			}
		case k*p > k*strike:
			payoff = k * (breakeven - p)
			if payoff != 0 {
				b.PartialSum += payoff
				b.PartialCount++
			}
		default:
			if premium != 0 {
				b.FixedSum += premium
				b.FixedCount++
			}
		}
	}
	return b, nil
}

// sides returns the winning and losing sums and counts for a direction.
func (b Buckets) sides(d Direction) (winSum float64, winCount int, lossSum float64, lossCount int) {
	buyerLossSum := b.PartialSum + b.FixedSum
	buyerLossCount := b.PartialCount + b.FixedCount
	if d == Sell {
		return buyerLossSum, buyerLossCount, b.GainSum, b.GainCount
	}
	return b.GainSum, b.GainCount, buyerLossSum, buyerLossCount
}

// Edge returns the Kelly fraction p - q/b for the direction, where p and q
// are the shares of winning and losing outcomes and b is the total win over
// the total loss. Without any loss the edge is p. Without any win the ratio
// is zero and Edge returns DegenerateEdge with ErrDegenerateEdge.
func (b Buckets) Edge(d Direction) (float64, error) {
	if b.Total <= 0 {
		return 0, fmt.Errorf("empty buckets: %w", ErrInvalidInput)
	}

	winSum, winCount, lossSum, lossCount := b.sides(d)
	p := float64(winCount) / float64(b.Total)
	q := float64(lossCount) / float64(b.Total)

	if lossSum == 0 {
		return p, nil
	}
	if winSum == 0 {
		return DegenerateEdge, ErrDegenerateEdge
	}

	ratio := winSum / lossSum
	return p - q/ratio, nil
}

// Edges returns the buy and sell edges of a contract over a terminal
// distribution, keyed {Scenario}_buy and {Scenario}_sell. Degenerate edges
// carry DegenerateEdge; invalid inputs return an error and no keys.
func Edges(s Scenario, terminal []float64, strike, premium float64, kind domain.OptionKind) (map[string]float64, error) {
	b, err := Classify(terminal, strike, premium, kind)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, 2)
	for _, d := range []Direction{Buy, Sell} {
		edge, err := b.Edge(d)
		if err != nil && !errors.Is(err, ErrDegenerateEdge) {
			return nil, err
		}
		out[s.Key(d)] = edge
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package pricing

import (
	"fmt"
	"math"
)

// DefaultSteps is the binomial tree depth.
const DefaultSteps = 1000

// BinomialTree prices the contract on a Cox-Ross-Rubinstein lattice with
// u = exp(sigma*sqrt(dt)), d = 1/u and p = (e^((r-q)dt) - d)/(u - d).
// American contracts take max(continuation, kind*(S - k)) at every node.
//
// Node prices are s0*exp(j*sigma*sqrt(dt)) for j in [-steps, steps], computed
// once in log space, so deep trees neither overflow nor lose precision to
// repeated multiplication.
func BinomialTree(p Params, steps int) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if steps < 1 {
		return 0, fmt.Errorf("steps %d: %w", steps, ErrInvalidInput)
	}

	dt := p.T / float64(steps)
	logU := p.Sigma * math.Sqrt(dt)
	u := math.Exp(logU)
	d := 1 / u
	prob := (math.Exp((p.Rate-p.Dividend)*dt) - d) / (u - d)
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return 0, fmt.Errorf("risk-neutral probability %v with %d steps: %w", prob, steps, ErrInvalidInput)
	}
	disc := math.Exp(-p.Rate * dt)
	up, down := disc*prob, disc*(1-prob)

	// price at step i with j up moves is nodes[2j-i+steps]
	nodes := make([]float64, 2*steps+1)
	for k := range nodes {
		nodes[k] = p.Spot * math.Exp(float64(k-steps)*logU)
	}

	kind := p.Kind.Sign()
	american := !p.Style.IsEuropean()

	values := make([]float64, steps+1)
	for j := 0; j <= steps; j++ {
		values[j] = math.Max(kind*(nodes[2*j]-p.Strike), 0)
	}

	for i := steps - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			v := up*values[j+1] + down*values[j]
			if american {
				v = math.Max(v, kind*(nodes[2*j-i+steps]-p.Strike))
			}
			values[j] = v
		}
	}

	return checkResult("binomial tree", values[0])
}

// Command valuation prices filtered option chains with Black-Scholes-Merton,
// Monte Carlo and binomial tree models, computes Greeks and Kelly edges, and
// writes output.json plus one file per bias screen.
//
// Usage:
//
//	valuation [-config valuation.yaml] [-seed N] [-contract 2024-01-19_call_150] [SYMBOL ...]
package main

import (
	"os"

	"valuationcli/internal/app"
)

func main() {
	os.Exit(app.RunCLI(app.CommandValuation, os.Args[1:], os.Stdout, os.Stderr))
}

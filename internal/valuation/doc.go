// Package valuation sequences the engine over one symbol's option chain.
//
// The Orchestrator estimates volatility and drift from the price series,
// skips contracts at or past expiry, prices every remaining contract with the
// closed form, Monte Carlo and binomial methods, attaches the Greeks and the
// Kelly edges of each simulation scenario, and returns the annotated chain.
// A field that cannot be computed is marked unavailable; only malformed
// input such as an empty or too short price series fails the whole symbol.
//
// The package also holds the steps around valuation: chain filtering before,
// and bias screening and put/call ratios after.
package valuation

// Package pricing values single equity options.
//
// It provides the Black-Scholes-Merton closed form with continuous dividend
// yield, a single-step Monte Carlo estimator, a Cox-Ross-Rubinstein binomial
// tree with early exercise, the five BSM Greeks and an implied volatility
// solver. All functions are pure: they keep no state between calls and the
// Monte Carlo estimator draws only from the generator it is given.
//
// Failures are reported as errors rather than sentinel prices. Callers that
// publish results map any error to an unavailable field.
package pricing

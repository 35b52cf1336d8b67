package pricing

import "math"

const sqrt2Pi = 2.5066282746310002

// normPDF is the standard normal density.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// normCDF is the standard normal distribution function. Erfc keeps precision
// in the lower tail where 1+Erf cancels.
func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

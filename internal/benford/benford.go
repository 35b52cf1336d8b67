// Package benford scores how closely the leading digits of a set of numbers
// follow Benford's law. The score is the sum of squared differences between
// the observed and theoretical digit probabilities; larger scores suggest
// less natural data.
package benford

import (
	"errors"
	"math"
	"strconv"

	"valuationcli/pkg/contracts/domain"
)

// ErrNoDigits is returned when no usable number remains to be scored.
var ErrNoDigits = errors.New("no leading digits to score")

// LeadingDigit returns the first significant decimal digit of |x|, or 0 for
// zero, NaN and infinities.
func LeadingDigit(x float64) int {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	// scientific notation always starts with the first significant digit
	s := strconv.FormatFloat(math.Abs(x), 'e', -1, 64)
	return int(s[0] - '0')
}

// LeadingDigitDistribution tallies leading digits 1-9 and normalizes them.
// Zero and non-finite entries are ignored. With nothing to count every
// probability is zero.
func LeadingDigitDistribution(numbers []float64) (counts [9]int, probs [9]float64) {
	var total int
	for _, x := range numbers {
		if d := LeadingDigit(x); d > 0 {
			counts[d-1]++
			total++
		}
	}
	if total == 0 {
		return counts, probs
	}
	for i, c := range counts {
		probs[i] = float64(c) / float64(total)
	}
	return counts, probs
}

// TheoreticalProbabilities returns log10(1 + 1/d) for d = 1..9.
func TheoreticalProbabilities() [9]float64 {
	var probs [9]float64
	for d := 1; d <= 9; d++ {
		probs[d-1] = math.Log10(1 + 1/float64(d))
	}
	return probs
}

// SumSquaredError returns the sum over digits of (observed - theoretical)^2.
func SumSquaredError(observed, theoretical [9]float64) float64 {
	var sse float64
	for i := range observed {
		diff := observed[i] - theoretical[i]
		sse += diff * diff
	}
	return sse
}

// Profile scores a flat list of numbers.
func Profile(numbers []float64) (domain.BenfordProfile, error) {
	counts, probs := LeadingDigitDistribution(numbers)
	var samples int
	for _, c := range counts {
		samples += c
	}
	if samples == 0 {
		return domain.BenfordProfile{}, ErrNoDigits
	}
	return domain.BenfordProfile{
		Samples:       samples,
		Counts:        counts,
		Probabilities: probs,
		SSE:           SumSquaredError(probs, TheoreticalProbabilities()),
	}, nil
}

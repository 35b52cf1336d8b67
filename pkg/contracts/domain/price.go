package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// PricePoint is a single daily close observation.
type PricePoint struct {
	Date  time.Time `json:"date" validate:"required"`
	Close float64   `json:"close" validate:"gt=0"`
}

// PriceSeries is the close history of one symbol in ascending date order.
//
// The valuation engine treats a series as immutable once it has been handed
// over; helpers that narrow the series return new slices.
type PriceSeries struct {
	Symbol string       `json:"symbol" validate:"required"`
	Points []PricePoint `json:"points" validate:"required,min=1,dive"`
}

// NewPriceSeries builds a series from unordered points, sorting them by date
// and normalizing the symbol.
func NewPriceSeries(symbol string, points []PricePoint) PriceSeries {
	sorted := make([]PricePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	return PriceSeries{
		Symbol: strings.ToUpper(strings.TrimSpace(symbol)),
		Points: sorted,
	}
}

// Len returns the number of observations.
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Closes returns the close prices in chronological order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Last returns the most recent observation.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Tail returns the most recent n observations.
func (s PriceSeries) Tail(n int) PriceSeries {
	if n <= 0 || n >= len(s.Points) {
		return s
	}
	return PriceSeries{Symbol: s.Symbol, Points: s.Points[len(s.Points)-n:]}
}

// Since returns the observations dated on or after from.
func (s PriceSeries) Since(from time.Time) PriceSeries {
	idx := sort.Search(len(s.Points), func(i int) bool {
		return !s.Points[i].Date.Before(from)
	})
	return PriceSeries{Symbol: s.Symbol, Points: s.Points[idx:]}
}

// Validate checks the invariants the engine relies on: at least one point,
// strictly positive finite closes and non-decreasing dates.
func (s PriceSeries) Validate() error {
	if len(s.Points) == 0 {
		return fmt.Errorf("price series %q is empty", s.Symbol)
	}

	for i, p := range s.Points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
			return fmt.Errorf("price series %q: invalid close %v at index %d", s.Symbol, p.Close, i)
		}
		if i > 0 && p.Date.Before(s.Points[i-1].Date) {
			return fmt.Errorf("price series %q: dates out of order at index %d", s.Symbol, i)
		}
	}

	return nil
}

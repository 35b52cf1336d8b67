package testutil

import (
	"math"
	"math/rand/v2"
	"time"

	"valuationcli/pkg/contracts/domain"
)

// Quotes22 is a 22-day close series whose 252-day annualized historical
// volatility is 0.46795243607880793.
var Quotes22 = []float64{
	14.387821, 14.226541, 14.769797, 15.015962, 15.414914, 16.068521, 16.060032, 15.796894,
	15.881777, 15.406426, 16.077011, 14.973518, 14.948055, 14.812241, 14.829216, 14.608518,
	14.387821, 14.574565, 14.014332, 14.218052, 13.708749, 14.209564,
}

// Quotes25 extends Quotes22 by three days. Its 21-day average historical
// volatility is 0.46829818423860164.
var Quotes25 = append(append([]float64{}, Quotes22...), 13.903981, 14.336889, 14.005842)

// StartDate is the first trading day used by the fixtures.
var StartDate = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

// TradingDates returns n consecutive weekdays starting at from.
func TradingDates(from time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	for d := from; len(dates) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// SeriesFromCloses dates closes on consecutive weekdays from StartDate.
func SeriesFromCloses(symbol string, closes []float64) domain.PriceSeries {
	dates := TradingDates(StartDate, len(closes))
	points := make([]domain.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = domain.PricePoint{Date: dates[i], Close: c}
	}
	return domain.PriceSeries{Symbol: symbol, Points: points}
}

// ReferenceSeries returns Quotes25 as a dated series.
func ReferenceSeries(symbol string) domain.PriceSeries {
	return SeriesFromCloses(symbol, Quotes25)
}

// SyntheticSeries returns n geometric Brownian motion closes with zero drift
// and the given annual volatility, reproducible for a seed.
func SyntheticSeries(symbol string, n int, s0, sigma float64, seed uint64) domain.PriceSeries {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	dt := 1.0 / 252
	closes := make([]float64, n)
	closes[0] = s0
	for i := 1; i < n; i++ {
		closes[i] = closes[i-1] * math.Exp(-0.5*sigma*sigma*dt+sigma*math.Sqrt(dt)*rng.NormFloat64())
	}
	return SeriesFromCloses(symbol, closes)
}

// Chain returns calls and puts at the given strikes for one expiry.
func Chain(symbol string, expiry time.Time, strikes []float64, lastPrice float64) []domain.OptionContract {
	chain := make([]domain.OptionContract, 0, 2*len(strikes))
	for _, kind := range []domain.OptionKind{domain.Call, domain.Put} {
		for _, k := range strikes {
			chain = append(chain, domain.OptionContract{
				Symbol:            symbol,
				Expiry:            expiry,
				Strike:            k,
				Kind:              kind,
				Style:             domain.American,
				LastPrice:         lastPrice,
				Volume:            10,
				OpenInterest:      100,
				ImpliedVolatility: 0.3,
				LastTradeDate:     expiry.AddDate(0, 0, -30),
			})
		}
	}
	return chain
}

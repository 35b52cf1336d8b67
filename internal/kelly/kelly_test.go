package kelly

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuationcli/internal/pricing"
	"valuationcli/internal/simulation"
	"valuationcli/pkg/contracts/domain"
)

func TestScenarioKeys(t *testing.T) {
	assert.Equal(t, "KellyCriterion_buy", Historical.Key(Buy))
	assert.Equal(t, "KellyCriterion_MU_0_sell", ZeroDrift.Key(Sell))
	assert.Equal(t, "KellyCriterion_IV_buy", ImpliedVol.Key(Buy))
	assert.Equal(t, -2147483648.0, DegenerateEdge)
}

func TestClassifyCallBoundaries(t *testing.T) {
	// strike 100, premium 5, breakeven 105
	b, err := Classify([]float64{110, 105, 100.5, 100, 90}, 100, 5, domain.Call)
	require.NoError(t, err)

	assert.Equal(t, 5, b.Total)
	assert.Equal(t, 1, b.GainCount)
	assert.InDelta(t, 5.0, b.GainSum, 1e-12)
	// P == breakeven lands in the partial bucket with a zero payoff
	assert.Equal(t, 1, b.PartialCount)
	assert.InDelta(t, 4.5, b.PartialSum, 1e-12)
	// P == strike is a fixed loss
	assert.Equal(t, 2, b.FixedCount)
	assert.InDelta(t, 10.0, b.FixedSum, 1e-12)

	// p = 1/5 and q = 3/5 for the buyer, b = 5 / 14.5
	buy, err := b.Edge(Buy)
	require.NoError(t, err)
	assert.InDelta(t, 0.2-0.6/(5/14.5), buy, 1e-12)
	assert.InDelta(t, -1.54, buy, 1e-12)

	sell, err := b.Edge(Sell)
	require.NoError(t, err)
	assert.InDelta(t, 0.6-0.2/(14.5/5), sell, 1e-12)
}

func TestEdgeUsesTotalsNotMeans(t *testing.T) {
	// one large win against three small losses
	b := Buckets{Total: 4, GainSum: 9, GainCount: 1, PartialSum: 1, PartialCount: 1, FixedSum: 2, FixedCount: 2}

	buy, err := b.Edge(Buy)
	require.NoError(t, err)
	assert.InDelta(t, 0.25-0.75/(9.0/3.0), buy, 1e-12)

	sell, err := b.Edge(Sell)
	require.NoError(t, err)
	assert.InDelta(t, 0.75-0.25/(3.0/9.0), sell, 1e-12)
}

func TestClassifyPutBoundaries(t *testing.T) {
	// strike 100, premium 5, breakeven 95
	b, err := Classify([]float64{90, 95, 99, 100, 120}, 100, 5, domain.Put)
	require.NoError(t, err)

	assert.Equal(t, 1, b.GainCount)
	assert.InDelta(t, 5.0, b.GainSum, 1e-12)
	assert.Equal(t, 1, b.PartialCount)
	assert.InDelta(t, 4.0, b.PartialSum, 1e-12)
	assert.Equal(t, 2, b.FixedCount)
	assert.InDelta(t, 10.0, b.FixedSum, 1e-12)
}

func TestEdgeWithoutLosses(t *testing.T) {
	b, err := Classify([]float64{120, 130, 140, 99}, 100, 5, domain.Call)
	require.NoError(t, err)

	b.FixedSum, b.FixedCount = 0, 0
	buy, err := b.Edge(Buy)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, buy, 1e-12)
}

func TestEdgeAllWinsForBuyer(t *testing.T) {
	b, err := Classify([]float64{120, 130, 140}, 100, 5, domain.Call)
	require.NoError(t, err)

	buy, err := b.Edge(Buy)
	require.NoError(t, err)
	assert.Equal(t, 1.0, buy)

	sell, err := b.Edge(Sell)
	assert.ErrorIs(t, err, ErrDegenerateEdge)
	assert.Equal(t, DegenerateEdge, sell)
}

func TestEdgeZeroPremium(t *testing.T) {
	b, err := Classify([]float64{80, 90, 100}, 100, 0, domain.Call)
	require.NoError(t, err)
	assert.Zero(t, b.FixedCount)

	for _, d := range []Direction{Buy, Sell} {
		edge, err := b.Edge(d)
		require.NoError(t, err)
		assert.Equal(t, 0.0, edge)
	}
}

func TestEdges(t *testing.T) {
	edges, err := Edges(ZeroDrift, []float64{120, 130, 140}, 100, 5, domain.Call)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"KellyCriterion_MU_0_buy":  1,
		"KellyCriterion_MU_0_sell": DegenerateEdge,
	}, edges)
}

func TestClassifyInvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		terminal []float64
		strike   float64
		premium  float64
		kind     domain.OptionKind
	}{
		{"empty", nil, 100, 1, domain.Call},
		{"zero strike", []float64{1}, 0, 1, domain.Call},
		{"negative premium", []float64{1}, 100, -1, domain.Call},
		{"NaN premium", []float64{1}, 100, math.NaN(), domain.Put},
		{"unknown kind", []float64{1}, 100, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Classify(tc.terminal, tc.strike, tc.premium, tc.kind)
			assert.ErrorIs(t, err, ErrInvalidInput)

			_, err = Edges(Historical, tc.terminal, tc.strike, tc.premium, tc.kind)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestNoFreeEdgeAtFairValue(t *testing.T) {
	const (
		spot  = 100.0
		sigma = 0.2
		days  = 21
	)
	est := NewEstimator(100_000)
	paths, err := est.Shared(spot, 0, sigma, []int{days}, simulation.NewRand(77))
	require.NoError(t, err)

	for _, kind := range []domain.OptionKind{domain.Call, domain.Put} {
		for _, strike := range []float64{95, 100, 105} {
			premium, err := pricing.BlackScholes(pricing.Params{
				Style:  domain.European,
				Kind:   kind,
				Spot:   spot,
				Strike: strike,
				T:      float64(days) / 252,
				Sigma:  sigma,
			})
			require.NoError(t, err)

			// at fair value the buyer's total win and total loss balance
			terminal, ok := paths.Column(days)
			require.True(t, ok)
			b, err := Classify(terminal, strike, premium, kind)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, b.GainSum/(b.PartialSum+b.FixedSum), 0.05, "%s %v ratio", kind, strike)

			c := domain.OptionContract{Strike: strike, Kind: kind, LastPrice: premium}
			edges, err := est.Contract(ZeroDrift, paths, days, c)
			require.NoError(t, err)

			buy, sell := edges[ZeroDrift.Key(Buy)], edges[ZeroDrift.Key(Sell)]
			assert.LessOrEqual(t, buy, 0.05, "%s %v buy", kind, strike)
			// neither side keeps an edge the other side does not give up
			assert.InDelta(t, 0, buy+sell, 0.05, "%s %v buy+sell", kind, strike)
		}
	}
}

func TestEstimatorHorizon(t *testing.T) {
	est := NewEstimator(100)
	paths, err := est.Shared(100, 0.1, 0.3, []int{5, 10}, simulation.NewRand(1))
	require.NoError(t, err)

	c := domain.OptionContract{Strike: 100, Kind: domain.Call, LastPrice: 2}
	_, err = est.Contract(Historical, paths, 11, c)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = est.Contract(Historical, paths, 0, c)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = est.Contract(Historical, paths, 7, c)
	assert.ErrorIs(t, err, ErrInvalidInput, "only requested days are kept")

	edges, err := est.Contract(Historical, paths, 5, c)
	require.NoError(t, err)
	assert.Contains(t, edges, "KellyCriterion_buy")
	assert.Contains(t, edges, "KellyCriterion_sell")
}

func TestImpliedVolContract(t *testing.T) {
	est := NewEstimator(2000)
	c := domain.OptionContract{Strike: 100, Kind: domain.Put, LastPrice: 3}

	a, err := est.ImpliedVolContract(100, 0.4, 15, c, simulation.NewRand(5))
	require.NoError(t, err)
	b, err := est.ImpliedVolContract(100, 0.4, 15, c, simulation.NewRand(5))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "KellyCriterion_IV_sell")

	_, err = est.ImpliedVolContract(100, 0, 15, c, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = est.ImpliedVolContract(100, 0.4, 0, c, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSharedRejectsEmptyHorizons(t *testing.T) {
	_, err := NewEstimator(10).Shared(100, 0, 0.2, nil, simulation.NewRand(1))
	assert.ErrorIs(t, err, simulation.ErrInvalidInput)
}

func TestNewEstimatorDefaults(t *testing.T) {
	est := NewEstimator(0)
	assert.Equal(t, DefaultIterations, est.Iterations)
	assert.Equal(t, simulation.DailyStep, est.Step)
}

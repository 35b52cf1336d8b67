package valuation

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "valuationcli/internal/errors"
	"valuationcli/internal/kelly"
	"valuationcli/internal/shared/testutil"
	"valuationcli/pkg/contracts/domain"
)

func testParams() Params {
	p := DefaultParams()
	p.MCIterations = 5000
	p.BTSteps = 200
	p.KellyIterations = 5000
	p.Seed = 11
	return p
}

func newTestOrchestrator(t *testing.T, p Params) (*Orchestrator, *testutil.LogCapture) {
	t.Helper()
	logger, capture := testutil.NewTestLogger(t)
	o, err := NewOrchestrator(p, logger)
	require.NoError(t, err)
	o.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return o, capture
}

func fixture(t *testing.T) (domain.PriceSeries, []domain.OptionContract, float64) {
	t.Helper()
	series := testutil.SyntheticSeries("TEST", 300, 100, 0.3, 99)
	last, ok := series.Last()
	require.True(t, ok)

	expiry := last.Date.AddDate(0, 0, 42)
	strikes := []float64{last.Close * 0.95, last.Close, last.Close * 1.05}
	chain := testutil.Chain("TEST", expiry, strikes, 0.08*last.Close)

	expired := domain.OptionContract{
		Symbol: "TEST", Expiry: last.Date, Strike: last.Close, Kind: domain.Call, LastPrice: 1,
	}
	return series, append(chain, expired), last.Close
}

func TestOrchestratorValue(t *testing.T) {
	o, capture := newTestOrchestrator(t, testParams())
	series, chain, spot := fixture(t)

	got, err := o.Value(context.Background(), series, chain)
	require.NoError(t, err)

	assert.Equal(t, "TEST", got.Symbol)
	assert.Equal(t, spot, got.StockPrice)
	assert.Equal(t, 1, got.Skipped)
	require.Len(t, got.Contracts, len(chain))
	assert.Greater(t, got.EWMAVolatility.Value, 0.0)
	assert.Equal(t, domain.VolatilityEWMA, got.EWMAVolatility.Method)
	assert.Equal(t, 0.94, got.EWMAVolatility.Lambda)

	assert.Nil(t, got.Contracts[len(chain)-1].Valuation)
	assert.Nil(t, chain[0].Valuation, "input chain is not modified")
	capture.AssertContains(t, slog.LevelDebug, "skipping expired contract")

	for _, c := range got.Contracts[:len(chain)-1] {
		v := c.Valuation
		require.NotNil(t, v, c.Key())
		assert.Equal(t, 30, v.DaysToExpiry)
		assert.InDelta(t, 30.0/252, v.TimeToMaturity, 1e-12)
		assert.True(t, v.BinomialTree.OK, c.Key())
		assert.True(t, v.Delta.OK)
		assert.True(t, v.Gamma.OK)
		assert.True(t, v.Vega.OK)
		assert.True(t, v.Theta.OK)
		assert.True(t, v.Rho.OK)

		for _, key := range []string{
			kelly.Historical.Key(kelly.Buy), kelly.Historical.Key(kelly.Sell),
			kelly.ZeroDrift.Key(kelly.Buy), kelly.ZeroDrift.Key(kelly.Sell),
		} {
			assert.Contains(t, v.Kelly, key)
		}
		assert.NotContains(t, v.Kelly, kelly.ImpliedVol.Key(kelly.Buy))

		switch c.Kind {
		case domain.Call:
			assert.True(t, v.BSM.OK)
			assert.True(t, v.MonteCarlo.OK)
		case domain.Put:
			// listed puts are American
			assert.False(t, v.BSM.OK)
			assert.False(t, v.MonteCarlo.OK)
			assert.Equal(t, domain.Unavailable, v.BSM.Float64())
		}
	}
	capture.AssertNoErrors(t)
}

func TestOrchestratorSerializesUnavailableAsMinusOne(t *testing.T) {
	o, _ := newTestOrchestrator(t, testParams())
	series, chain, _ := fixture(t)

	got, err := o.Value(context.Background(), series, chain)
	require.NoError(t, err)

	var put *domain.OptionContract
	for i := range got.Contracts {
		if got.Contracts[i].Kind == domain.Put && got.Contracts[i].Valuation != nil {
			put = &got.Contracts[i]
			break
		}
	}
	require.NotNil(t, put)

	raw, err := json.Marshal(put)
	require.NoError(t, err)

	var decoded struct {
		Valuation map[string]float64 `json:"valuationData"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, -1.0, decoded.Valuation[domain.KeyBSM])
	assert.Equal(t, -1.0, decoded.Valuation[domain.KeyMonteCarlo])
	assert.Greater(t, decoded.Valuation[domain.KeyBinomialTree], 0.0)
	assert.Contains(t, decoded.Valuation, "KellyCriterion_MU_0_sell")
}

func TestOrchestratorSeededRunsRepeat(t *testing.T) {
	o, _ := newTestOrchestrator(t, testParams())
	series, chain, _ := fixture(t)

	a, err := o.Value(context.Background(), series, chain)
	require.NoError(t, err)
	b, err := o.Value(context.Background(), series, chain)
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestOrchestratorImpliedVolScenario(t *testing.T) {
	p := testParams()
	p.CalcKellyIV = true
	o, _ := newTestOrchestrator(t, p)
	series, chain, _ := fixture(t)

	// no quoted IV: solved from the last price
	for i := range chain {
		if chain[i].Kind == domain.Call {
			chain[i].ImpliedVolatility = 0
		}
	}

	got, err := o.Value(context.Background(), series, chain)
	require.NoError(t, err)

	for _, c := range got.Contracts {
		if c.Valuation == nil {
			continue
		}
		buy, ok := c.Valuation.Kelly[kelly.ImpliedVol.Key(kelly.Buy)]
		require.True(t, ok, c.Key())
		assert.NotEqual(t, domain.Unavailable, buy, c.Key())
		assert.Contains(t, c.Valuation.Kelly, kelly.ImpliedVol.Key(kelly.Sell))
	}
}

func TestOrchestratorErrors(t *testing.T) {
	o, _ := newTestOrchestrator(t, testParams())

	t.Run("empty series", func(t *testing.T) {
		_, err := o.Value(context.Background(), domain.PriceSeries{Symbol: "X"}, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	})

	t.Run("series shorter than one window", func(t *testing.T) {
		short := testutil.SeriesFromCloses("X", testutil.Quotes22[:10])
		_, err := o.Value(context.Background(), short, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeComputation))
	})

	t.Run("canceled context", func(t *testing.T) {
		series, chain, _ := fixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := o.Value(ctx, series, chain)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid params", func(t *testing.T) {
		p := DefaultParams()
		p.TradingDays = 0
		p.VolWindow = 1
		_, err := NewOrchestrator(p, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	})
}

func TestEstimateReferenceSeries(t *testing.T) {
	o, _ := newTestOrchestrator(t, DefaultParams())
	in, err := o.Estimate(testutil.ReferenceSeries("REF"))
	require.NoError(t, err)

	assert.InEpsilon(t, 0.46829818423860164, in.Average.Value, 1e-5)
	assert.InEpsilon(t, 0.4682249435757335, in.EWMA.Value, 1e-5)
	assert.Equal(t, testutil.Quotes25[len(testutil.Quotes25)-1], in.Spot)
}

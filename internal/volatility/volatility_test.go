package volatility

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuationcli/internal/shared/testutil"
)

func TestHistorical(t *testing.T) {
	t.Run("reference series", func(t *testing.T) {
		got, err := Historical(testutil.Quotes22, DefaultTradingDays)
		require.NoError(t, err)
		assert.InEpsilon(t, 0.46795243607880793, got, 1e-5)
	})

	t.Run("single return is NaN", func(t *testing.T) {
		got, err := Historical([]float64{10, 11}, DefaultTradingDays)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(got))
	})

	t.Run("constant prices have zero volatility", func(t *testing.T) {
		got, err := Historical([]float64{5, 5, 5, 5}, DefaultTradingDays)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	errCases := []struct {
		name   string
		prices []float64
		days   int
		target error
	}{
		{"empty", nil, 252, ErrInsufficientData},
		{"one price", []float64{1}, 252, ErrInsufficientData},
		{"zero price", []float64{1, 0, 2}, 252, ErrInvalidPrice},
		{"negative price", []float64{1, -2, 2}, 252, ErrInvalidPrice},
		{"NaN price", []float64{1, math.NaN(), 2}, 252, ErrInvalidPrice},
		{"zero trading days", []float64{1, 2, 3}, 0, ErrInvalidParameter},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Historical(tc.prices, tc.days)
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestAverage(t *testing.T) {
	t.Run("reference series", func(t *testing.T) {
		got, err := Average(testutil.Quotes25, DefaultWindow, DefaultTradingDays)
		require.NoError(t, err)
		assert.InEpsilon(t, 0.46829818423860164, got, 1e-5)
	})

	t.Run("single window equals historical", func(t *testing.T) {
		avg, err := Average(testutil.Quotes22, DefaultWindow, DefaultTradingDays)
		require.NoError(t, err)
		hv, err := Historical(testutil.Quotes22, DefaultTradingDays)
		require.NoError(t, err)
		assert.Equal(t, hv, avg)
	})

	t.Run("window count guard", func(t *testing.T) {
		_, err := Average(testutil.Quotes22[:DefaultWindow], DefaultWindow, DefaultTradingDays)
		assert.ErrorIs(t, err, ErrInsufficientData)

		_, err = Average(testutil.Quotes22[:DefaultWindow+1], DefaultWindow, DefaultTradingDays)
		assert.NoError(t, err)
	})

	t.Run("window too small", func(t *testing.T) {
		_, err := Average(testutil.Quotes22, 1, DefaultTradingDays)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestEWMA(t *testing.T) {
	t.Run("lambda at one converges to average", func(t *testing.T) {
		avg, err := Average(testutil.Quotes25, DefaultWindow, DefaultTradingDays)
		require.NoError(t, err)

		for _, lambda := range []float64{1.0, 1 - 1e-16, 1.5} {
			got, err := EWMA(testutil.Quotes25, DefaultWindow, DefaultTradingDays, lambda)
			require.NoError(t, err)
			assert.InEpsilon(t, avg, got, 1e-3, "lambda=%v", lambda)
		}
	})

	t.Run("lambda zero equals most recent window", func(t *testing.T) {
		got, err := EWMA(testutil.Quotes25, DefaultWindow, DefaultTradingDays, 0)
		require.NoError(t, err)

		n := len(testutil.Quotes25)
		want, err := Historical(testutil.Quotes25[n-DefaultWindow-1:], DefaultTradingDays)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("default lambda lies between window extremes", func(t *testing.T) {
		got, err := EWMA(testutil.Quotes25, DefaultWindow, DefaultTradingDays, DefaultLambda)
		require.NoError(t, err)
		assert.InEpsilon(t, 0.4682249435757335, got, 1e-5)
	})

	t.Run("weights sum to one", func(t *testing.T) {
		constant := make([]float64, 40)
		for i := range constant {
			constant[i] = 100 * math.Exp(0.01*float64(i%2))
		}
		hv, err := Historical(constant[:DefaultWindow+1], DefaultTradingDays)
		require.NoError(t, err)

		for _, lambda := range []float64{0.1, 0.5, 0.94, 0.999} {
			got, err := EWMA(constant, DefaultWindow, DefaultTradingDays, lambda)
			require.NoError(t, err)
			assert.InDelta(t, hv, got, 1e-9, "lambda=%v", lambda)
		}
	})

	t.Run("invalid lambda", func(t *testing.T) {
		_, err := EWMA(testutil.Quotes25, DefaultWindow, DefaultTradingDays, -0.1)
		assert.ErrorIs(t, err, ErrInvalidParameter)
		_, err = EWMA(testutil.Quotes25, DefaultWindow, DefaultTradingDays, math.NaN())
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("window count guard", func(t *testing.T) {
		_, err := EWMA(testutil.Quotes25[:10], DefaultWindow, DefaultTradingDays, DefaultLambda)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

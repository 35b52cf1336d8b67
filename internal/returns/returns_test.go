package returns

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuationcli/internal/shared/testutil"
)

func TestCompounded(t *testing.T) {
	got, err := Compounded(testutil.Quotes22)
	require.NoError(t, err)
	assert.InDelta(t, -0.01238943687164306, got, 1e-12)

	got, err = Compounded([]float64{42})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestCompoundedSeries(t *testing.T) {
	t.Run("round trip with point return", func(t *testing.T) {
		for _, quotes := range [][]float64{
			testutil.Quotes22,
			testutil.Quotes25,
			{10, 12, 9, 15},
			{3},
		} {
			series, err := CompoundedSeries(quotes)
			require.NoError(t, err)
			require.Len(t, series, len(quotes))
			assert.Equal(t, 0.0, series[0])

			point, err := Compounded(quotes)
			require.NoError(t, err)
			assert.InDelta(t, point, series[len(series)-1], 1e-12)
		}
	})

	t.Run("cumulative values", func(t *testing.T) {
		series, err := CompoundedSeries([]float64{100, 110, 99})
		require.NoError(t, err)
		assert.InDelta(t, 0.10, series[1], 1e-12)
		assert.InDelta(t, -0.01, series[2], 1e-12)
	})
}

func TestAnnualizedCompounded(t *testing.T) {
	got, err := AnnualizedCompounded(testutil.Quotes22)
	require.NoError(t, err)
	assert.InDelta(t, -0.13307414331334744, got, 1e-10)

	year := make([]float64, TradingDaysPerYear)
	for i := range year {
		year[i] = 100 * math.Pow(1.1, float64(i)/float64(len(year)-1))
	}
	got, err = AnnualizedCompounded(year)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got, 1e-9)
}

func TestReturnErrors(t *testing.T) {
	_, err := Compounded(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)

	_, err = CompoundedSeries([]float64{1, 0})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = AnnualizedCompounded([]float64{1, math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

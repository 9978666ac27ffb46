package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearPrices(from, to int) []float64 {
	prices := make([]float64, 0, to-from+1)
	for p := from; p <= to; p++ {
		prices = append(prices, float64(p))
	}
	return prices
}

func TestMACDSeries_InvalidSpans(t *testing.T) {
	_, err := MACDSeries([]float64{1, 2, 3}, 26, 12, 9)
	assert.Error(t, err)

	_, err = MACDSeries(nil, 12, 26, 9)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMACDSeries_MatchesClosedFormReference(t *testing.T) {
	prices := linearPrices(10, 29)

	result, err := DefaultMACD(prices)
	require.NoError(t, err)
	require.Equal(t, len(prices), result.Len())
	assert.Equal(t, "macd_12_26_9", result.Name)

	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = closedFormEMA(prices, 12, i) - closedFormEMA(prices, 26, i)
	}

	for i := range prices {
		wantSignal := closedFormEMA(line, 9, i)
		assert.InDelta(t, line[i], result.MACD[i], 1e-6, "macd at %d", i)
		assert.InDelta(t, wantSignal, result.Signal[i], 1e-6, "signal at %d", i)
		assert.InDelta(t, line[i]-wantSignal, result.Histogram[i], 1e-6, "histogram at %d", i)
	}
}

func TestMACDSeries_LinearTrendSignals(t *testing.T) {
	prices := linearPrices(10, 29)
	result, err := DefaultMACD(prices)
	require.NoError(t, err)

	// All lines are seeded at zero, so the first step is a cross from equality
	assert.Equal(t, 0.0, result.MACD[0])
	assert.Equal(t, 0.0, result.Signal[0])
	assert.True(t, IsGoldenCross(result.At(0), result.At(1)))

	prev, cur, err := result.LastTwo()
	require.NoError(t, err)
	assert.False(t, IsGoldenCross(prev, cur), "no cross once MACD is already above signal")
	assert.True(t, IsSustainedStrength(prev, cur))
	assert.Greater(t, cur.Histogram, 0.0)
}

func TestMACDSeries_FallingTrendHasNoSignal(t *testing.T) {
	prices := linearPrices(10, 59)
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}

	result, err := DefaultMACD(prices)
	require.NoError(t, err)

	prev, cur, err := result.LastTwo()
	require.NoError(t, err)
	assert.False(t, IsGoldenCross(prev, cur))
	assert.False(t, IsSustainedStrength(prev, cur))
}

func TestMACDCrossConditions(t *testing.T) {
	tests := []struct {
		name      string
		prev, cur MACDPoint
		cross     bool
		strength  bool
	}{
		{
			name:  "cross from below",
			prev:  MACDPoint{MACD: -1, Signal: 0},
			cur:   MACDPoint{MACD: 1, Signal: 0.5},
			cross: true, strength: true,
		},
		{
			name:  "cross from equality",
			prev:  MACDPoint{MACD: 0, Signal: 0},
			cur:   MACDPoint{MACD: -0.5, Signal: -1},
			cross: true, strength: false,
		},
		{
			name:  "above and rising",
			prev:  MACDPoint{MACD: 2, Signal: 1},
			cur:   MACDPoint{MACD: 3, Signal: 2},
			cross: false, strength: true,
		},
		{
			name:  "above but falling",
			prev:  MACDPoint{MACD: 3, Signal: 1},
			cur:   MACDPoint{MACD: 2, Signal: 1.5},
			cross: false, strength: false,
		},
		{
			name:  "touching signal",
			prev:  MACDPoint{MACD: -1, Signal: 0},
			cur:   MACDPoint{MACD: 0, Signal: 0},
			cross: false, strength: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.cross, IsGoldenCross(tt.prev, tt.cur))
			assert.Equal(t, tt.strength, IsSustainedStrength(tt.prev, tt.cur))
		})
	}
}

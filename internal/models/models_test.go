package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCandle_Validate(t *testing.T) {
	tests := []struct {
		name    string
		candle  *Candle
		wantErr error
	}{
		{
			name: "valid candle",
			candle: &Candle{
				Market:     "KRW-BTC",
				Timestamp:  time.Now(),
				Open:       100,
				High:       110,
				Low:        95,
				TradePrice: 105,
			},
		},
		{
			name:    "missing market",
			candle:  &Candle{Timestamp: time.Now(), TradePrice: 1},
			wantErr: ErrInvalidSymbol,
		},
		{
			name:    "zero timestamp",
			candle:  &Candle{Market: "KRW-BTC", TradePrice: 1},
			wantErr: ErrInvalidTimestamp,
		},
		{
			name:    "zero price",
			candle:  &Candle{Market: "KRW-BTC", Timestamp: time.Now()},
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "high below low",
			candle:  &Candle{Market: "KRW-BTC", Timestamp: time.Now(), TradePrice: 1, High: 1, Low: 2},
			wantErr: ErrInvalidCandle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.candle.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGranularity(t *testing.T) {
	assert.Equal(t, 24*time.Hour, GranularityDay.Duration())
	assert.Equal(t, time.Hour, GranularityHour.Duration())
	assert.NoError(t, GranularityHour.Validate())
	assert.ErrorIs(t, Granularity("weeks").Validate(), ErrInvalidGranularity)
}

func TestIsQuotedIn(t *testing.T) {
	assert.True(t, IsQuotedIn("KRW-BTC", QuoteCurrency))
	assert.False(t, IsQuotedIn("BTC-ETH", QuoteCurrency))
	assert.False(t, IsQuotedIn("KRWBTC", QuoteCurrency))
}

func TestSnapshot_WithPrices(t *testing.T) {
	updated := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	snap := &Snapshot{
		Version:     3,
		ScanID:      "scan-1",
		LastUpdated: updated,
		Recommendations: []Candidate{
			{Market: "KRW-BTC", CurrentPrice: 100},
			{Market: "KRW-ETH", CurrentPrice: 50},
		},
	}

	synced := updated.Add(30 * time.Second)
	next := snap.WithPrices(map[string]float64{"KRW-BTC": 101, "KRW-XRP": 9}, synced)

	assert.Equal(t, int64(4), next.Version)
	assert.Equal(t, "scan-1", next.ScanID)
	assert.Equal(t, synced, next.LastPriceSync)
	assert.Equal(t, 101.0, next.Recommendations[0].CurrentPrice)
	assert.Equal(t, 50.0, next.Recommendations[1].CurrentPrice)

	// The published snapshot is untouched
	assert.Equal(t, 100.0, snap.Recommendations[0].CurrentPrice)
	assert.Equal(t, int64(3), snap.Version)
	assert.Equal(t, []string{"KRW-BTC", "KRW-ETH"}, next.Markets())
}

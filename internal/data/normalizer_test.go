package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestNormalizeMarkets_KeepsQuoteCurrency(t *testing.T) {
	raw := []upbitMarket{
		{Market: "KRW-BTC"},
		{Market: "BTC-ETH"},
		{Market: "KRW-ETH"},
		{Market: "USDT-XRP"},
		{Market: "KRWBTC"},
	}

	markets := normalizeMarkets(raw, "KRW")
	assert.Equal(t, []string{"KRW-BTC", "KRW-ETH"}, markets)
}

func TestNormalizeMarkets_Empty(t *testing.T) {
	markets := normalizeMarkets(nil, "KRW")
	assert.NotNil(t, markets)
	assert.Empty(t, markets)
}

func TestNormalizeTicker(t *testing.T) {
	quote, err := normalizeTicker(upbitTicker{
		Market:           "KRW-BTC",
		TradePrice:       floatPtr(50000000),
		SignedChangeRate: floatPtr(-0.013),
		AccTradePrice24h: floatPtr(1.5e11),
	})
	require.NoError(t, err)
	assert.Equal(t, "KRW-BTC", quote.Market)
	assert.Equal(t, 50000000.0, quote.TradePrice)
	assert.Equal(t, -0.013, quote.SignedChangeRate)
	assert.Equal(t, 1.5e11, quote.AccTradePrice24h)
}

func TestNormalizeTicker_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		raw  upbitTicker
	}{
		{"missing market", upbitTicker{SignedChangeRate: floatPtr(0), AccTradePrice24h: floatPtr(1)}},
		{"missing change rate", upbitTicker{Market: "KRW-BTC", AccTradePrice24h: floatPtr(1)}},
		{"missing volume", upbitTicker{Market: "KRW-BTC", SignedChangeRate: floatPtr(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalizeTicker(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestNormalizeCandle(t *testing.T) {
	candle, err := normalizeCandle(upbitCandle{
		Market:               "KRW-ETH",
		CandleDateTimeUTC:    "2024-03-01T09:00:00",
		OpeningPrice:         100,
		HighPrice:            110,
		LowPrice:             95,
		TradePrice:           105,
		CandleAccTradeVolume: 12.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "KRW-ETH", candle.Market)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), candle.Timestamp)
	assert.Equal(t, 105.0, candle.TradePrice)
	assert.Equal(t, 12.5, candle.Volume)
}

func TestNormalizeCandle_BadTimestamp(t *testing.T) {
	_, err := normalizeCandle(upbitCandle{Market: "KRW-ETH", CandleDateTimeUTC: "yesterday"})
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestNormalizeStreamMessage(t *testing.T) {
	raw := []byte(`{"type":"ticker","code":"KRW-BTC","trade_price":51000000,"timestamp":1709283600000}`)

	update, ok, err := NormalizeStreamMessage(raw)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "KRW-BTC", update.Market)
	assert.Equal(t, 51000000.0, update.TradePrice)
	assert.Equal(t, time.UnixMilli(1709283600000).UTC(), update.Timestamp)
}

func TestNormalizeStreamMessage_IgnoresOtherTypes(t *testing.T) {
	update, ok, err := NormalizeStreamMessage([]byte(`{"type":"trade","code":"KRW-BTC","trade_price":1}`))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, update.Market)
}

func TestNormalizeStreamMessage_Malformed(t *testing.T) {
	_, _, err := NormalizeStreamMessage([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, ok, err := NormalizeStreamMessage([]byte(`{"type":"ticker","code":"KRW-BTC","trade_price":0}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.False(t, ok)
}

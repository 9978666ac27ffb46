package data

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
)

// upbitTimeLayout is the layout of candle_date_time_utc
const upbitTimeLayout = "2006-01-02T15:04:05"

type upbitMarket struct {
	Market      string `json:"market"`
	KoreanName  string `json:"korean_name"`
	EnglishName string `json:"english_name"`
}

type upbitTicker struct {
	Market           string   `json:"market"`
	TradePrice       *float64 `json:"trade_price"`
	SignedChangeRate *float64 `json:"signed_change_rate"`
	AccTradePrice24h *float64 `json:"acc_trade_price_24h"`
}

type upbitCandle struct {
	Market               string  `json:"market"`
	CandleDateTimeUTC    string  `json:"candle_date_time_utc"`
	OpeningPrice         float64 `json:"opening_price"`
	HighPrice            float64 `json:"high_price"`
	LowPrice             float64 `json:"low_price"`
	TradePrice           float64 `json:"trade_price"`
	CandleAccTradeVolume float64 `json:"candle_acc_trade_volume"`
}

type upbitError struct {
	Error struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

// upbitStreamTicker is a ticker message in the websocket DEFAULT format
type upbitStreamTicker struct {
	Type       string  `json:"type"`
	Code       string  `json:"code"`
	TradePrice float64 `json:"trade_price"`
	Timestamp  int64   `json:"timestamp"` // Unix milliseconds
}

// normalizeMarkets keeps the market codes quoted in currency
func normalizeMarkets(raw []upbitMarket, currency string) []string {
	markets := make([]string, 0, len(raw))
	for _, m := range raw {
		if models.IsQuotedIn(m.Market, currency) {
			markets = append(markets, m.Market)
		}
	}
	return markets
}

// normalizeTicker converts a ticker DTO, rejecting entries with missing fields
func normalizeTicker(raw upbitTicker) (models.Quote, error) {
	if raw.Market == "" || raw.SignedChangeRate == nil || raw.AccTradePrice24h == nil {
		return models.Quote{}, fmt.Errorf("ticker %q: %w", raw.Market, ErrMalformedPayload)
	}

	quote := models.Quote{
		Market:           raw.Market,
		SignedChangeRate: *raw.SignedChangeRate,
		AccTradePrice24h: *raw.AccTradePrice24h,
	}
	if raw.TradePrice != nil {
		quote.TradePrice = *raw.TradePrice
	}
	if err := quote.Validate(); err != nil {
		return models.Quote{}, fmt.Errorf("ticker %q: %w", raw.Market, err)
	}
	return quote, nil
}

// normalizeCandle converts a candle DTO. Order is preserved as delivered.
func normalizeCandle(raw upbitCandle) (models.Candle, error) {
	ts, err := time.ParseInLocation(upbitTimeLayout, raw.CandleDateTimeUTC, time.UTC)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse candle time %q: %w", raw.CandleDateTimeUTC, ErrMalformedPayload)
	}

	return models.Candle{
		Market:     raw.Market,
		Timestamp:  ts,
		Open:       raw.OpeningPrice,
		High:       raw.HighPrice,
		Low:        raw.LowPrice,
		TradePrice: raw.TradePrice,
		Volume:     raw.CandleAccTradeVolume,
	}, nil
}

// NormalizeStreamMessage converts a raw websocket message into a price update.
// Messages that are not ticker updates return ok == false.
func NormalizeStreamMessage(raw []byte) (update models.PriceUpdate, ok bool, err error) {
	var msg upbitStreamTicker
	if err := json.Unmarshal(raw, &msg); err != nil {
		return models.PriceUpdate{}, false, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if msg.Type != "ticker" {
		return models.PriceUpdate{}, false, nil
	}
	if msg.Code == "" || msg.TradePrice <= 0 {
		return models.PriceUpdate{}, false, fmt.Errorf("ticker %q: %w", msg.Code, ErrMalformedPayload)
	}

	return models.PriceUpdate{
		Market:     msg.Code,
		TradePrice: msg.TradePrice,
		Timestamp:  time.UnixMilli(msg.Timestamp).UTC(),
	}, true, nil
}

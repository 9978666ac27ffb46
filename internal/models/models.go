package models

import (
	"strings"
	"time"
)

// QuoteCurrency is the market prefix of Korean-Won quoted pairs
const QuoteCurrency = "KRW"

// Granularity is the candle interval requested from the exchange
type Granularity string

const (
	GranularityDay  Granularity = "days"
	GranularityHour Granularity = "minutes/60"
)

// Duration returns the length of one candle period
func (g Granularity) Duration() time.Duration {
	switch g {
	case GranularityDay:
		return 24 * time.Hour
	case GranularityHour:
		return time.Hour
	default:
		return 0
	}
}

// Validate validates a Granularity
func (g Granularity) Validate() error {
	if g.Duration() == 0 {
		return ErrInvalidGranularity
	}
	return nil
}

// IsQuotedIn reports whether a market code like "KRW-BTC" is quoted in currency
func IsQuotedIn(market, currency string) bool {
	return strings.HasPrefix(market, currency+"-")
}

// Candle represents one OHLC sample of a market
type Candle struct {
	Market     string    `json:"market"`
	Timestamp  time.Time `json:"timestamp"` // Start of the candle period (UTC)
	Open       float64   `json:"opening_price"`
	High       float64   `json:"high_price"`
	Low        float64   `json:"low_price"`
	TradePrice float64   `json:"trade_price"`
	Volume     float64   `json:"candle_acc_trade_volume"`
}

// Validate validates a Candle
func (c *Candle) Validate() error {
	if c.Market == "" {
		return ErrInvalidSymbol
	}
	if c.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if c.TradePrice <= 0 {
		return ErrInvalidPrice
	}
	if c.High < c.Low {
		return ErrInvalidCandle
	}
	return nil
}

// Quote is the instantaneous snapshot of a market used by the volatility filter
// and as the ranking key
type Quote struct {
	Market           string  `json:"market"`
	TradePrice       float64 `json:"trade_price"`
	SignedChangeRate float64 `json:"signed_change_rate"`
	AccTradePrice24h float64 `json:"acc_trade_price_24h"`
}

// Validate validates a Quote
func (q *Quote) Validate() error {
	if q.Market == "" {
		return ErrInvalidSymbol
	}
	if q.AccTradePrice24h < 0 {
		return ErrInvalidVolume
	}
	return nil
}

// PriceUpdate is a live trade price for a market
type PriceUpdate struct {
	Market     string    `json:"market"`
	TradePrice float64   `json:"trade_price"`
	Timestamp  time.Time `json:"timestamp"`
}

// TakeProfit is one tier of the trade plan
type TakeProfit struct {
	Price   float64 `json:"price"`
	Horizon string  `json:"time"`
}

// Candidate is a market that passed both filter stages, annotated with its trade plan
type Candidate struct {
	Market           string     `json:"market"`
	CurrentPrice     float64    `json:"current_price"`
	MA10             float64    `json:"ma10"`
	AccTradePrice24h float64    `json:"acc_trade_price_24h"`
	Slope            float64    `json:"slope"`
	NormalizedSlope  float64    `json:"normalized_slope"`
	MACDStrength     float64    `json:"macd_strength"`
	BuyPrice         float64    `json:"buy_price"`
	TP1              TakeProfit `json:"tp1"`
	TP2              TakeProfit `json:"tp2"`
	TP3              TakeProfit `json:"tp3"`
	StopLoss         float64    `json:"sl"`
}

// Validate validates a Candidate
func (c *Candidate) Validate() error {
	if c.Market == "" {
		return ErrInvalidSymbol
	}
	if c.CurrentPrice <= 0 {
		return ErrInvalidPrice
	}
	if c.MA10 <= 0 {
		return ErrInvalidMovingAverage
	}
	return nil
}

// Snapshot is one published recommendation list. A snapshot is never mutated
// after it has been published; price syncs publish a new version.
type Snapshot struct {
	Version         int64       `json:"version"`
	ScanID          string      `json:"scan_id"`
	LastUpdated     time.Time   `json:"last_updated"`
	LastPriceSync   time.Time   `json:"last_price_sync"`
	Recommendations []Candidate `json:"recommendations"`
}

// Clone returns a deep copy of the snapshot
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Recommendations = make([]Candidate, len(s.Recommendations))
	copy(out.Recommendations, s.Recommendations)
	return &out
}

// Markets returns the market codes of the recommendations in rank order
func (s *Snapshot) Markets() []string {
	markets := make([]string, 0, len(s.Recommendations))
	for _, c := range s.Recommendations {
		markets = append(markets, c.Market)
	}
	return markets
}

// WithPrices returns the next snapshot version with current prices replaced
// from prices. Markets missing from prices keep their previous price.
func (s *Snapshot) WithPrices(prices map[string]float64, syncedAt time.Time) *Snapshot {
	next := s.Clone()
	next.Version = s.Version + 1
	next.LastPriceSync = syncedAt
	for i := range next.Recommendations {
		if price, ok := prices[next.Recommendations[i].Market]; ok && price > 0 {
			next.Recommendations[i].CurrentPrice = price
		}
	}
	return next
}

// RankEntry is one market of the published ranking
type RankEntry struct {
	Market           string  `json:"market"`
	AccTradePrice24h float64 `json:"acc_trade_price_24h"`
}

// Ranking returns the recommendations as rank entries, in rank order
func (s *Snapshot) Ranking() []RankEntry {
	entries := make([]RankEntry, 0, len(s.Recommendations))
	for _, c := range s.Recommendations {
		entries = append(entries, RankEntry{Market: c.Market, AccTradePrice24h: c.AccTradePrice24h})
	}
	return entries
}

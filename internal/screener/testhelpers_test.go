package screener

import (
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
)

// candlesNewestFirst builds candles from oldest-first prices and returns
// them newest first, the way the exchange delivers them
func candlesNewestFirst(market string, g models.Granularity, prices []float64) []models.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(prices))
	for i, p := range prices {
		out[len(prices)-1-i] = models.Candle{
			Market:     market,
			Timestamp:  base.Add(time.Duration(i) * g.Duration()),
			Open:       p,
			High:       p,
			Low:        p,
			TradePrice: p,
			Volume:     1,
		}
	}
	return out
}

func rising(n int, from, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

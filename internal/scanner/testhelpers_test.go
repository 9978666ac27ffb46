package scanner

import (
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/data"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
)

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

func series(n int, from, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

// addQualifying registers a market whose candles pass both indicator stages
func addQualifying(src *data.MockSource, market string, accTradePrice float64) {
	src.SetQuote(models.Quote{Market: market, TradePrice: 159.5, SignedChangeRate: 0.01, AccTradePrice24h: accTradePrice})
	src.SetCandles(market, models.GranularityDay, candlesNewestFirst(market, models.GranularityDay, series(50, 100, 1)))
	src.SetCandles(market, models.GranularityHour, candlesNewestFirst(market, models.GranularityHour, series(20, 150, 0.5)))
}

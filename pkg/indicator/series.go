package indicator

import (
	"errors"
	"fmt"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

var (
	// ErrInsufficientData is returned when a series is too short for an indicator
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUnorderedCandles is returned when candles are not strictly newest-first
	ErrUnorderedCandles = errors.New("candles are not in newest-first order")
	// ErrUndefinedValue is returned when an indicator value is NaN
	ErrUndefinedValue = errors.New("indicator value undefined")
	// ErrNonFiniteValue is returned when an input or result is NaN or infinite
	ErrNonFiniteValue = errors.New("non-finite value")
)

// NormalizeCandles converts the exchange's newest-first candle list into an
// oldest-first time series. This is the only place the ordering is flipped;
// every indicator downstream assumes oldest-first input.
func NormalizeCandles(candles []models.Candle, granularity models.Granularity) (*techan.TimeSeries, error) {
	if err := granularity.Validate(); err != nil {
		return nil, err
	}

	series := techan.NewTimeSeries()
	for i := len(candles) - 1; i >= 0; i-- {
		c := candles[i]
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("candle %d of %s: %w", i, c.Market, err)
		}

		candle := techan.NewCandle(techan.NewTimePeriod(c.Timestamp, granularity.Duration()))
		candle.OpenPrice = big.NewDecimal(c.Open)
		candle.MaxPrice = big.NewDecimal(c.High)
		candle.MinPrice = big.NewDecimal(c.Low)
		candle.ClosePrice = big.NewDecimal(c.TradePrice)
		candle.Volume = big.NewDecimal(c.Volume)

		if !series.AddCandle(candle) {
			return nil, fmt.Errorf("candle %d of %s at %s: %w",
				i, c.Market, c.Timestamp.Format("2006-01-02T15:04:05"), ErrUnorderedCandles)
		}
	}

	return series, nil
}

// ClosePrices returns the trade price of every candle in the series, oldest first
func ClosePrices(series *techan.TimeSeries) []float64 {
	if series == nil {
		return nil
	}

	closePrice := techan.NewClosePriceIndicator(series)
	prices := make([]float64, len(series.Candles))
	for i := range series.Candles {
		prices[i] = closePrice.Calculate(i).Float()
	}
	return prices
}

// TradePrices normalizes candles and extracts their trade prices.
// It fails with ErrInsufficientData when fewer than minLength candles exist.
func TradePrices(candles []models.Candle, granularity models.Granularity, minLength int) ([]float64, error) {
	if len(candles) < minLength {
		return nil, fmt.Errorf("%d candles, need %d: %w", len(candles), minLength, ErrInsufficientData)
	}

	series, err := NormalizeCandles(candles, granularity)
	if err != nil {
		return nil, err
	}
	return ClosePrices(series), nil
}

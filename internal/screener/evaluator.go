package screener

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/data"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/indicator"
)

// EvaluatorConfig holds the candle counts and indicator parameters of the
// indicator stage
type EvaluatorConfig struct {
	DailyCandles  int // Daily candles fetched for MACD; also the minimum accepted
	HourlyCandles int // Hourly candles fetched for the MA; also the minimum accepted
	MAWindow      int
	MACDFast      int
	MACDSlow      int
	MACDSignal    int
}

// DefaultEvaluatorConfig returns the default indicator stage configuration
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		DailyCandles:  50,
		HourlyCandles: 20,
		MAWindow:      10,
		MACDFast:      indicator.DefaultMACDFast,
		MACDSlow:      indicator.DefaultMACDSlow,
		MACDSignal:    indicator.DefaultMACDSignal,
	}
}

// Evaluator is the second screening stage: daily MACD momentum and hourly
// moving-average trend. It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	source data.Source
	config EvaluatorConfig
}

// NewEvaluator creates an evaluator, filling zero config fields with defaults
func NewEvaluator(source data.Source, config EvaluatorConfig) *Evaluator {
	def := DefaultEvaluatorConfig()
	if config.DailyCandles <= 0 {
		config.DailyCandles = def.DailyCandles
	}
	if config.HourlyCandles <= 0 {
		config.HourlyCandles = def.HourlyCandles
	}
	if config.MAWindow <= 0 {
		config.MAWindow = def.MAWindow
	}
	if config.MACDFast <= 0 || config.MACDSlow <= 0 || config.MACDSignal <= 0 {
		config.MACDFast, config.MACDSlow, config.MACDSignal = def.MACDFast, def.MACDSlow, def.MACDSignal
	}
	return &Evaluator{source: source, config: config}
}

// MACDSignal holds the result of the momentum check
type MACDSignal struct {
	GoldenCross bool
	Sustained   bool
	Strength    float64 // MACD - signal at the latest point
}

// Passed reports whether either momentum condition holds
func (s MACDSignal) Passed() bool {
	return s.GoldenCross || s.Sustained
}

// CheckMACD evaluates the momentum conditions over oldest-first prices
func CheckMACD(prices []float64, fast, slow, signal int) (MACDSignal, error) {
	result, err := indicator.MACDSeries(prices, fast, slow, signal)
	if err != nil {
		return MACDSignal{}, err
	}
	prev, cur, err := result.LastTwo()
	if err != nil {
		return MACDSignal{}, err
	}
	return MACDSignal{
		GoldenCross: indicator.IsGoldenCross(prev, cur),
		Sustained:   indicator.IsSustainedStrength(prev, cur),
		Strength:    cur.MACD - cur.Signal,
	}, nil
}

// MATrend holds the last two moving-average values
type MATrend struct {
	Previous float64
	Current  float64
}

// Rising reports whether the average strictly increased
func (t MATrend) Rising() bool {
	return t.Current > t.Previous
}

// Slope returns the change between the last two values
func (t MATrend) Slope() float64 {
	return t.Current - t.Previous
}

// CheckMATrend computes the moving average over oldest-first prices and
// returns its last two values. Either being undefined is an error.
func CheckMATrend(prices []float64, window int) (MATrend, error) {
	sma, err := indicator.SMASeries(prices, window)
	if err != nil {
		return MATrend{}, err
	}
	prev, cur, err := indicator.LastTwo(sma)
	if err != nil {
		return MATrend{}, err
	}
	return MATrend{Previous: prev, Current: cur}, nil
}

// Evaluate runs both indicator checks for the quote's market. The hourly
// candles are only fetched once the daily check has passed.
func (e *Evaluator) Evaluate(ctx context.Context, quote models.Quote) Evaluation {
	market := quote.Market

	daily, err := e.source.Candles(ctx, market, models.GranularityDay, e.config.DailyCandles)
	if err != nil {
		return unavailable(market, ReasonFetchFailed, fmt.Errorf("daily candles: %w", err))
	}
	dailyPrices, err := indicator.TradePrices(daily, models.GranularityDay, e.config.DailyCandles)
	if ev, failed := classify(market, err, ReasonInsufficientDaily); failed {
		return ev
	}

	momentum, err := CheckMACD(dailyPrices, e.config.MACDFast, e.config.MACDSlow, e.config.MACDSignal)
	if err != nil {
		return unavailable(market, ReasonIndicatorFault, err)
	}
	if !momentum.Passed() {
		return rejected(market, ReasonNoMACDSignal)
	}

	hourly, err := e.source.Candles(ctx, market, models.GranularityHour, e.config.HourlyCandles)
	if err != nil {
		return unavailable(market, ReasonFetchFailed, fmt.Errorf("hourly candles: %w", err))
	}
	hourlyPrices, err := indicator.TradePrices(hourly, models.GranularityHour, e.config.HourlyCandles)
	if ev, failed := classify(market, err, ReasonInsufficientHourly); failed {
		return ev
	}

	trend, err := CheckMATrend(hourlyPrices, e.config.MAWindow)
	switch {
	case errors.Is(err, indicator.ErrUndefinedValue):
		return rejected(market, ReasonMAUndefined)
	case errors.Is(err, indicator.ErrInsufficientData):
		return rejected(market, ReasonInsufficientHourly)
	case err != nil:
		return unavailable(market, ReasonIndicatorFault, err)
	}
	if !trend.Rising() {
		return rejected(market, ReasonMANotRising)
	}

	candidate := &models.Candidate{
		Market:           market,
		CurrentPrice:     hourlyPrices[len(hourlyPrices)-1],
		MA10:             trend.Current,
		AccTradePrice24h: quote.AccTradePrice24h,
		Slope:            trend.Slope(),
		MACDStrength:     momentum.Strength,
	}
	if err := candidate.Validate(); err != nil {
		return unavailable(market, ReasonIndicatorFault, err)
	}
	return qualifies(candidate)
}

// classify maps a candle normalization error to an evaluation. Short history
// is a rejection; malformed or unordered candles make the ticker unavailable.
func classify(market string, err error, shortReason string) (Evaluation, bool) {
	switch {
	case err == nil:
		return Evaluation{}, false
	case errors.Is(err, indicator.ErrInsufficientData):
		return rejected(market, shortReason), true
	default:
		return unavailable(market, ReasonBadCandles, err), true
	}
}

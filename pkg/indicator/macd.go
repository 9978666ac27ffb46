package indicator

import "fmt"

const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACDPoint is the MACD state at one candle position
type MACDPoint struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACDResult holds the full MACD, signal and histogram series
type MACDResult struct {
	Name      string
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// Len returns the number of positions in the result
func (r MACDResult) Len() int {
	return len(r.MACD)
}

// At returns the point at position i
func (r MACDResult) At(i int) MACDPoint {
	return MACDPoint{
		MACD:      r.MACD[i],
		Signal:    r.Signal[i],
		Histogram: r.Histogram[i],
	}
}

// LastTwo returns the previous and current points
func (r MACDResult) LastTwo() (prev, cur MACDPoint, err error) {
	n := r.Len()
	if n < 2 {
		return MACDPoint{}, MACDPoint{}, ErrInsufficientData
	}
	return r.At(n - 2), r.At(n - 1), nil
}

// MACDSeries computes MACD = EMA(fast) - EMA(slow), signal = EMA(signal) of
// the MACD line and histogram = MACD - signal, at every position of prices.
func MACDSeries(prices []float64, fast, slow, signal int) (MACDResult, error) {
	if fast >= slow {
		return MACDResult{}, fmt.Errorf("MACD fast span %d must be below slow span %d", fast, slow)
	}
	if len(prices) == 0 {
		return MACDResult{}, ErrInsufficientData
	}

	fastEMA, err := EMASeries(prices, fast)
	if err != nil {
		return MACDResult{}, err
	}
	slowEMA, err := EMASeries(prices, slow)
	if err != nil {
		return MACDResult{}, err
	}

	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine, err := EMASeries(line, signal)
	if err != nil {
		return MACDResult{}, err
	}

	hist := make([]float64, len(prices))
	for i := range line {
		hist[i] = line[i] - signalLine[i]
	}

	return MACDResult{
		Name:      fmt.Sprintf("macd_%d_%d_%d", fast, slow, signal),
		MACD:      line,
		Signal:    signalLine,
		Histogram: hist,
	}, nil
}

// DefaultMACD computes MACD(12, 26, 9)
func DefaultMACD(prices []float64) (MACDResult, error) {
	return MACDSeries(prices, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
}

// IsGoldenCross reports whether the MACD line crossed above the signal line
// between prev and cur.
func IsGoldenCross(prev, cur MACDPoint) bool {
	return prev.MACD <= prev.Signal && cur.MACD > cur.Signal
}

// IsSustainedStrength reports whether the MACD line is above the signal line
// and still rising.
func IsSustainedStrength(prev, cur MACDPoint) bool {
	return cur.MACD > cur.Signal && cur.MACD > prev.MACD
}

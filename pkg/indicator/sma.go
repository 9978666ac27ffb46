package indicator

import (
	"fmt"
	"math"
)

// SMASeries calculates the Simple Moving Average over a trailing window.
// Positions before the window is full are NaN and must not be read as zero.
func SMASeries(values []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("SMA window must be at least 1, got %d", window)
	}

	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}

		var sum float64
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		mean := sum / float64(window)
		if math.IsNaN(mean) || math.IsInf(mean, 0) {
			return nil, fmt.Errorf("sma_%d position %d: %w", window, i, ErrNonFiniteValue)
		}
		out[i] = mean
	}
	return out, nil
}

// LastTwo returns the previous and current values of a series.
// It fails with ErrInsufficientData for series shorter than two and with
// ErrUndefinedValue if either value is NaN.
func LastTwo(series []float64) (prev, cur float64, err error) {
	if len(series) < 2 {
		return 0, 0, ErrInsufficientData
	}
	prev, cur = series[len(series)-2], series[len(series)-1]
	if math.IsNaN(prev) || math.IsNaN(cur) {
		return 0, 0, ErrUndefinedValue
	}
	return prev, cur, nil
}

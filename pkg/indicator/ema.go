package indicator

import (
	"fmt"
	"math"
)

// EMA calculates the Exponential Moving Average without bias adjustment.
// The first value seeds the average:
//
//	ema[0] = price[0]
//	ema[t] = price[t]*k + ema[t-1]*(1-k), k = 2 / (span + 1)
type EMA struct {
	span       int
	name       string
	multiplier float64
	value      float64
	ready      bool
	processed  int
}

// NewEMA creates a new EMA calculator with the specified span
func NewEMA(span int) (*EMA, error) {
	if span < 1 {
		return nil, fmt.Errorf("EMA span must be at least 1, got %d", span)
	}

	return &EMA{
		span:       span,
		name:       fmt.Sprintf("ema_%d", span),
		multiplier: 2.0 / float64(span+1),
	}, nil
}

// Name returns the indicator name
func (e *EMA) Name() string {
	return e.name
}

// Update feeds the next value and returns the updated EMA
func (e *EMA) Update(value float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%s: %w", e.name, ErrNonFiniteValue)
	}

	if !e.ready {
		e.value = value
		e.ready = true
		e.processed++
		return e.value, nil
	}

	e.value = value*e.multiplier + e.value*(1-e.multiplier)
	e.processed++
	return e.value, nil
}

// Value returns the current EMA value
func (e *EMA) Value() (float64, error) {
	if !e.ready {
		return 0, fmt.Errorf("EMA not ready: need at least 1 value")
	}
	return e.value, nil
}

// Reset clears the EMA state
func (e *EMA) Reset() {
	e.value = 0
	e.ready = false
	e.processed = 0
}

// IsReady returns true once the EMA has been seeded
func (e *EMA) IsReady() bool {
	return e.ready
}

// Processed returns the number of values processed
func (e *EMA) Processed() int {
	return e.processed
}

// EMASeries returns the EMA of values at every position
func EMASeries(values []float64, span int) ([]float64, error) {
	ema, err := NewEMA(span)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i], err = ema.Update(v)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
	}
	return out, nil
}

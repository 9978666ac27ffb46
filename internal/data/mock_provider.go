package data

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
)

// MockSource is an in-memory Source for tests. Each market can be given
// candles per granularity, a quote, an injected error or a panic.
type MockSource struct {
	mu sync.RWMutex

	tickers   []string
	quotes    map[string]models.Quote
	candles   map[string]map[models.Granularity][]models.Candle
	failures  map[string]error
	panics    map[string]bool
	listErr   error
	batchErrs map[int]error

	snapshotCalls int
	candleCalls   map[string]int
}

var _ Source = (*MockSource)(nil)

// NewMockSource creates an empty mock source
func NewMockSource() *MockSource {
	return &MockSource{
		quotes:      make(map[string]models.Quote),
		candles:     make(map[string]map[models.Granularity][]models.Candle),
		failures:    make(map[string]error),
		panics:      make(map[string]bool),
		batchErrs:   make(map[int]error),
		candleCalls: make(map[string]int),
	}
}

// SetTickers sets the result of ListTickers
func (m *MockSource) SetTickers(tickers ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers = append([]string(nil), tickers...)
}

// SetQuote sets the snapshot quote of a market
func (m *MockSource) SetQuote(q models.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[q.Market] = q
}

// SetCandles sets the candles (newest first) returned for market and granularity
func (m *MockSource) SetCandles(market string, g models.Granularity, candles []models.Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.candles[market] == nil {
		m.candles[market] = make(map[models.Granularity][]models.Candle)
	}
	m.candles[market][g] = candles
}

// FailMarket makes every Candles call for market return err
func (m *MockSource) FailMarket(market string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[market] = err
}

// PanicMarket makes every Candles call for market panic
func (m *MockSource) PanicMarket(market string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics[market] = true
}

// FailList makes ListTickers return err
func (m *MockSource) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// FailBatch makes the n-th Snapshot call (zero based) return err
func (m *MockSource) FailBatch(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchErrs[n] = err
}

// ListTickers returns the configured tickers
func (m *MockSource) ListTickers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]string(nil), m.tickers...), nil
}

// Snapshot returns the configured quotes of markets; unknown markets are omitted
func (m *MockSource) Snapshot(ctx context.Context, markets []string) ([]models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(markets) > MaxSnapshotBatch {
		return nil, fmt.Errorf("%d markets: %w", len(markets), ErrBatchTooLarge)
	}

	m.mu.Lock()
	call := m.snapshotCalls
	m.snapshotCalls++
	err := m.batchErrs[call]
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	quotes := make([]models.Quote, 0, len(markets))
	for _, market := range markets {
		if q, ok := m.quotes[market]; ok {
			quotes = append(quotes, q)
		}
	}
	return quotes, nil
}

// Candles returns up to count of the configured candles
func (m *MockSource) Candles(ctx context.Context, market string, g models.Granularity, count int) ([]models.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.candleCalls[market]++
	shouldPanic := m.panics[market]
	err := m.failures[market]
	m.mu.Unlock()

	if shouldPanic {
		panic(fmt.Sprintf("mock source panic for %s", market))
	}
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	candles := m.candles[market][g]
	if count < len(candles) {
		candles = candles[:count]
	}
	return append([]models.Candle(nil), candles...), nil
}

// SnapshotCalls returns how many Snapshot calls were made
func (m *MockSource) SnapshotCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotCalls
}

// CandleCalls returns how many Candles calls were made for market
func (m *MockSource) CandleCalls(market string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.candleCalls[market]
}

// CandleMarkets returns the markets Candles was called for, sorted
func (m *MockSource) CandleMarkets() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	markets := make([]string, 0, len(m.candleCalls))
	for market := range m.candleCalls {
		markets = append(markets, market)
	}
	sort.Strings(markets)
	return markets
}

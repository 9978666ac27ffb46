package data

import (
	"context"
	"errors"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
)

var (
	// ErrUpstream is returned when the exchange answers with an error status or cannot be reached
	ErrUpstream = errors.New("upstream request failed")
	// ErrRateLimited is returned when the exchange rejects a request with HTTP 429
	ErrRateLimited = errors.New("upstream rate limit exceeded")
	// ErrMalformedPayload is returned when a response body cannot be decoded
	ErrMalformedPayload = errors.New("malformed upstream payload")
	// ErrInvalidSymbol is returned when an invalid market code is provided
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrBatchTooLarge is returned when a snapshot request exceeds MaxSnapshotBatch markets
	ErrBatchTooLarge = errors.New("snapshot batch too large")
)

// MaxSnapshotBatch is the largest number of markets the ticker endpoint accepts per request
const MaxSnapshotBatch = 100

// Source is the exchange market data the scanner reads from. Every call may
// fail; callers treat a failure as "no data" for the affected ticker or batch.
type Source interface {
	// ListTickers returns all market codes quoted in the configured currency
	ListTickers(ctx context.Context) ([]string, error)

	// Snapshot returns the current quote of up to MaxSnapshotBatch markets
	Snapshot(ctx context.Context, markets []string) ([]models.Quote, error)

	// Candles returns up to count candles of market, newest first
	Candles(ctx context.Context, market string, granularity models.Granularity, count int) ([]models.Candle, error)
}

// PriceStreamer pushes live trade prices for a set of markets
type PriceStreamer interface {
	// Stream subscribes to markets and emits price updates until ctx is done
	Stream(ctx context.Context, markets []string) (<-chan models.PriceUpdate, error)

	// Close releases the underlying connection
	Close() error
}

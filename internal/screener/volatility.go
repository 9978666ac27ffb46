package screener

import (
	"context"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/data"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

// DefaultChangeRateBand is the half-width of the accepted 24h change band
const DefaultChangeRateBand = 0.02

// VolatilityFilter is the first screening stage. It drops markets that
// already moved more than the band in the last 24h, in either direction.
type VolatilityFilter struct {
	source    data.Source
	band      float64
	batchSize int
}

// NewVolatilityFilter creates a volatility filter. batchSize is clamped to
// data.MaxSnapshotBatch.
func NewVolatilityFilter(source data.Source, band float64, batchSize int) *VolatilityFilter {
	if batchSize <= 0 || batchSize > data.MaxSnapshotBatch {
		batchSize = data.MaxSnapshotBatch
	}
	if band <= 0 {
		band = DefaultChangeRateBand
	}
	return &VolatilityFilter{
		source:    source,
		band:      band,
		batchSize: batchSize,
	}
}

// InBand reports whether rate lies in the closed interval [-band, band]
func InBand(rate, band float64) bool {
	return rate >= -band && rate <= band
}

// Filter fetches quotes for tickers in batches and keeps those inside the
// band. A batch that fails is logged and skipped; the other batches still
// contribute.
func (f *VolatilityFilter) Filter(ctx context.Context, tickers []string) []models.Quote {
	log := logger.WithContext(ctx)
	kept := make([]models.Quote, 0)

	for start := 0; start < len(tickers); start += f.batchSize {
		if ctx.Err() != nil {
			log.Warn("Volatility filter interrupted", logger.ErrorField(ctx.Err()))
			break
		}

		end := start + f.batchSize
		if end > len(tickers) {
			end = len(tickers)
		}
		batch := tickers[start:end]

		quotes, err := f.source.Snapshot(ctx, batch)
		if err != nil {
			log.Warn("Skipping snapshot batch",
				logger.Int("batch_start", start),
				logger.Int("batch_size", len(batch)),
				logger.ErrorField(err),
			)
			logger.ErrorsTotal.WithLabelValues("screener", "snapshot_batch").Inc()
			continue
		}

		for _, q := range quotes {
			if InBand(q.SignedChangeRate, f.band) {
				kept = append(kept, q)
			}
		}
	}

	return kept
}

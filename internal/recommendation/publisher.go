package recommendation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

// Publisher is the single writer of a Store. Scan results and price
// refreshes are serialized through it so versions never interleave.
type Publisher struct {
	store Store
	mu    sync.Mutex
	now   func() time.Time
}

// NewPublisher creates the writer for store
func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store, now: time.Now}
}

// Store returns the underlying store
func (p *Publisher) Store() Store {
	return p.store
}

// PublishScan publishes the ranked result of a scan as the next version
func (p *Publisher) PublishScan(ctx context.Context, scanID string, ranked []models.Candidate) (*models.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	version, err := p.currentVersion(ctx)
	if err != nil {
		return nil, err
	}

	recs := make([]models.Candidate, len(ranked))
	copy(recs, ranked)

	now := p.now().UTC()
	snap := &models.Snapshot{
		Version:         version + 1,
		ScanID:          scanID,
		LastUpdated:     now,
		LastPriceSync:   now,
		Recommendations: recs,
	}
	if err := p.store.Publish(ctx, snap); err != nil {
		return nil, err
	}

	logger.SnapshotVersion.Set(float64(snap.Version))
	logger.WithContext(ctx).Info("Published recommendations",
		logger.Int64("version", snap.Version),
		logger.Strings("markets", snap.Markets()),
	)
	return snap, nil
}

// ApplyPrices publishes the next version of the latest snapshot with the
// given current prices. It returns nil without publishing when nothing has
// been published yet or no price applies.
func (p *Publisher) ApplyPrices(ctx context.Context, prices map[string]float64) (*models.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur, err := p.store.Latest(ctx)
	if errors.Is(err, models.ErrSnapshotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	applies := false
	for _, market := range cur.Markets() {
		if price, ok := prices[market]; ok && price > 0 {
			applies = true
			break
		}
	}
	if !applies {
		return nil, nil
	}

	next := cur.WithPrices(prices, p.now().UTC())
	if err := p.store.Publish(ctx, next); err != nil {
		return nil, err
	}
	logger.SnapshotVersion.Set(float64(next.Version))
	return next, nil
}

func (p *Publisher) currentVersion(ctx context.Context) (int64, error) {
	cur, err := p.store.Latest(ctx)
	if errors.Is(err, models.ErrSnapshotNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cur.Version, nil
}

package recommendation

import (
	"context"
	"testing"
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublisher(store Store) (*Publisher, *time.Time) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	p := NewPublisher(store)
	p.now = func() time.Time { return now }
	return p, &now
}

func TestPublisher_PublishScanIncrementsVersion(t *testing.T) {
	store := NewMemoryStore()
	p, _ := newTestPublisher(store)
	ctx := context.Background()

	first, err := p.PublishScan(ctx, "scan-1", snapshot(0, "KRW-BTC").Recommendations)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, "scan-1", first.ScanID)
	assert.Equal(t, first.LastUpdated, first.LastPriceSync)

	second, err := p.PublishScan(ctx, "scan-2", []models.Candidate{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)
	assert.NotNil(t, second.Recommendations)

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "scan-2", latest.ScanID)
}

func TestPublisher_ApplyPrices(t *testing.T) {
	store := NewMemoryStore()
	p, now := newTestPublisher(store)
	ctx := context.Background()

	// Nothing published yet
	next, err := p.ApplyPrices(ctx, map[string]float64{"KRW-BTC": 1})
	require.NoError(t, err)
	assert.Nil(t, next)

	scan, err := p.PublishScan(ctx, "scan-1", snapshot(0, "KRW-BTC", "KRW-ETH").Recommendations)
	require.NoError(t, err)

	*now = now.Add(30 * time.Second)
	next, err = p.ApplyPrices(ctx, map[string]float64{"KRW-BTC": 105, "KRW-DOGE": 1})
	require.NoError(t, err)
	require.NotNil(t, next)

	assert.Equal(t, scan.Version+1, next.Version)
	assert.Equal(t, scan.LastUpdated, next.LastUpdated)
	assert.Equal(t, *now, next.LastPriceSync)
	assert.Equal(t, 105.0, next.Recommendations[0].CurrentPrice)
	assert.Equal(t, 100.0, next.Recommendations[1].CurrentPrice)

	// Trade plan and ranking fields are from the scan and stay put.
	assert.Equal(t, scan.Recommendations[0].BuyPrice, next.Recommendations[0].BuyPrice)
}

func TestPublisher_ApplyPricesWithoutMatchDoesNotPublish(t *testing.T) {
	store := NewMemoryStore()
	p, _ := newTestPublisher(store)
	ctx := context.Background()

	_, err := p.PublishScan(ctx, "scan-1", snapshot(0, "KRW-BTC").Recommendations)
	require.NoError(t, err)

	next, err := p.ApplyPrices(ctx, map[string]float64{"KRW-ETH": 10, "KRW-BTC": 0})
	require.NoError(t, err)
	assert.Nil(t, next)

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), latest.Version)
}

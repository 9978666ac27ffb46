package recommendation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(version int64, markets ...string) *models.Snapshot {
	recs := make([]models.Candidate, len(markets))
	for i, m := range markets {
		recs[i] = models.Candidate{
			Market:           m,
			CurrentPrice:     100,
			MA10:             99,
			AccTradePrice24h: float64(1000 - i*100),
		}
	}
	return &models.Snapshot{
		Version:         version,
		ScanID:          "scan",
		LastUpdated:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		LastPriceSync:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Recommendations: recs,
	}
}

func TestMemoryStore_EmptyLatest(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Latest(context.Background())
	assert.ErrorIs(t, err, models.ErrSnapshotNotFound)

	_, err = store.Ranking(context.Background(), 5)
	assert.ErrorIs(t, err, models.ErrSnapshotNotFound)
}

func TestMemoryStore_PublishAndRead(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Publish(ctx, snapshot(1, "KRW-BTC", "KRW-ETH")))

	got, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, []string{"KRW-BTC", "KRW-ETH"}, got.Markets())

	ranking, err := store.Ranking(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.RankEntry{{Market: "KRW-BTC", AccTradePrice24h: 1000}}, ranking)
}

func TestMemoryStore_ReadersGetCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	published := snapshot(1, "KRW-BTC")
	require.NoError(t, store.Publish(ctx, published))

	// Mutating the caller's value or a read copy does not affect the store.
	published.Recommendations[0].CurrentPrice = 1
	read, err := store.Latest(ctx)
	require.NoError(t, err)
	read.Recommendations[0].CurrentPrice = 2

	again, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, again.Recommendations[0].CurrentPrice)
}

func TestMemoryStore_RejectsStaleVersions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Publish(ctx, snapshot(2, "KRW-BTC")))
	assert.ErrorIs(t, store.Publish(ctx, snapshot(2, "KRW-ETH")), models.ErrStaleSnapshot)
	assert.ErrorIs(t, store.Publish(ctx, snapshot(1, "KRW-ETH")), models.ErrStaleSnapshot)

	got, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"KRW-BTC"}, got.Markets())

	store.Reset()
	require.NoError(t, store.Publish(ctx, snapshot(1, "KRW-ETH")))
}

func TestMemoryStore_ConcurrentReaders(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Publish(ctx, snapshot(1, "KRW-BTC")))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap, err := store.Latest(ctx)
				if assert.NoError(t, err) {
					assert.Len(t, snap.Recommendations, 1)
				}
			}
		}()
	}
	for v := int64(2); v <= 50; v++ {
		require.NoError(t, store.Publish(ctx, snapshot(v, "KRW-BTC")))
	}
	wg.Wait()

	got, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Version)
}

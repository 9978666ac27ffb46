package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/storage"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

// DefaultTTL bounds how long a snapshot stays readable without a new publish
const DefaultTTL = 2 * time.Hour

// RedisStore shares snapshots between the scanner and API processes.
//
// Keys:
//   - recommendations:latest   JSON of the latest snapshot
//   - recommendations:ranking  ZSET market -> acc_trade_price_24h
//
// Every publish is announced on the recommendations.updated channel.
type RedisStore struct {
	client storage.RedisClient
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client storage.RedisClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Publish writes the snapshot and its ranking, then announces it. The version
// check is not atomic across processes; Publisher is the only writer.
func (s *RedisStore) Publish(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("publish: %w", models.ErrSnapshotNotFound)
	}

	cur, err := s.Latest(ctx)
	switch {
	case err == nil && snap.Version <= cur.Version:
		return fmt.Errorf("version %d, published %d: %w", snap.Version, cur.Version, models.ErrStaleSnapshot)
	case err != nil && !errors.Is(err, models.ErrSnapshotNotFound):
		logger.Warn("Could not read current snapshot before publish", logger.ErrorField(err))
	}

	if err := s.client.Set(ctx, models.RecommendationLatestKey, snap, s.ttl); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	members := make([]storage.ScoredMember, 0, len(snap.Recommendations))
	for _, c := range snap.Recommendations {
		members = append(members, storage.ScoredMember{Member: c.Market, Score: c.AccTradePrice24h})
	}
	if err := s.client.ReplaceSortedSet(ctx, models.RecommendationRankingKey, members, s.ttl); err != nil {
		return fmt.Errorf("failed to store ranking: %w", err)
	}

	notice := UpdateNotice{Version: snap.Version, ScanID: snap.ScanID}
	if err := s.client.Publish(ctx, models.RecommendationUpdateChannel, notice); err != nil {
		// Readers fall back to polling Latest; the snapshot itself is stored.
		logger.Warn("Failed to announce snapshot",
			logger.Int64("version", snap.Version),
			logger.ErrorField(err),
		)
	}
	return nil
}

// Latest reads the latest snapshot
func (s *RedisStore) Latest(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := s.client.GetJSON(ctx, models.RecommendationLatestKey, &snap)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, models.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if snap.Recommendations == nil {
		snap.Recommendations = []models.Candidate{}
	}
	return &snap, nil
}

// Ranking reads the ranking ZSET
func (s *RedisStore) Ranking(ctx context.Context, limit int) ([]models.RankEntry, error) {
	members, err := s.client.RangeByScoreDesc(ctx, models.RecommendationRankingKey, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking: %w", err)
	}
	if len(members) == 0 {
		if _, err := s.Latest(ctx); err != nil {
			return nil, err
		}
	}

	entries := make([]models.RankEntry, len(members))
	for i, m := range members {
		entries[i] = models.RankEntry{Market: m.Member, AccTradePrice24h: m.Score}
	}
	return entries, nil
}

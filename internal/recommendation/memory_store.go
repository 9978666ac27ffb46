package recommendation

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
)

// MemoryStore keeps the latest snapshot in process. Readers never block the
// writer: publishing swaps a pointer.
type MemoryStore struct {
	latest atomic.Pointer[models.Snapshot]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Publish stores a copy of snap
func (s *MemoryStore) Publish(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("publish: %w", models.ErrSnapshotNotFound)
	}
	next := snap.Clone()

	for {
		cur := s.latest.Load()
		if cur != nil && next.Version <= cur.Version {
			return fmt.Errorf("version %d, published %d: %w", next.Version, cur.Version, models.ErrStaleSnapshot)
		}
		if s.latest.CompareAndSwap(cur, next) {
			return nil
		}
	}
}

// Reset forgets the latest snapshot
func (s *MemoryStore) Reset() {
	s.latest.Store(nil)
}

// Latest returns a copy of the latest snapshot
func (s *MemoryStore) Latest(ctx context.Context) (*models.Snapshot, error) {
	cur := s.latest.Load()
	if cur == nil {
		return nil, models.ErrSnapshotNotFound
	}
	return cur.Clone(), nil
}

// Ranking returns the first limit entries of the latest snapshot. The
// snapshot is already in rank order.
func (s *MemoryStore) Ranking(ctx context.Context, limit int) ([]models.RankEntry, error) {
	cur := s.latest.Load()
	if cur == nil {
		return nil, models.ErrSnapshotNotFound
	}
	entries := cur.Ranking()
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/storage"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

// Mirror keeps a local MemoryStore in step with a RedisStore. It reloads on
// every update notice and, as a fallback for missed notices, on a timer.
type Mirror struct {
	source   *RedisStore
	client   storage.RedisClient
	local    *MemoryStore
	interval time.Duration
}

// NewMirror creates a mirror of source into local
func NewMirror(source *RedisStore, client storage.RedisClient, local *MemoryStore, interval time.Duration) *Mirror {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Mirror{source: source, client: client, local: local, interval: interval}
}

// Local returns the mirrored store
func (m *Mirror) Local() *MemoryStore {
	return m.local
}

// Run mirrors until ctx is done
func (m *Mirror) Run(ctx context.Context) error {
	m.Refresh(ctx)

	notices, err := m.client.Subscribe(ctx, models.RecommendationUpdateChannel)
	if err != nil {
		logger.Warn("Snapshot notices unavailable, polling only", logger.ErrorField(err))
		notices = nil
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Refresh(ctx)
		case msg, ok := <-notices:
			if !ok {
				notices = nil
				continue
			}
			var notice UpdateNotice
			if err := json.Unmarshal([]byte(msg.Message), &notice); err != nil {
				logger.Warn("Ignoring malformed snapshot notice", logger.ErrorField(err))
				continue
			}
			if cur, err := m.local.Latest(ctx); err == nil && cur.Version == notice.Version {
				continue
			}
			m.Refresh(ctx)
		}
	}
}

// Refresh copies the remote latest snapshot into the local store. A remote
// version below the local one means the remote was reset, and is taken as is.
func (m *Mirror) Refresh(ctx context.Context) {
	snap, err := m.source.Latest(ctx)
	if errors.Is(err, models.ErrSnapshotNotFound) {
		return
	}
	if err != nil {
		logger.Warn("Failed to read remote snapshot", logger.ErrorField(err))
		return
	}

	cur, err := m.local.Latest(ctx)
	if err == nil {
		if snap.Version == cur.Version {
			return
		}
		if snap.Version < cur.Version {
			m.local.Reset()
		}
	}

	if err := m.local.Publish(ctx, snap); err != nil {
		logger.Warn("Failed to mirror snapshot", logger.Int64("version", snap.Version), logger.ErrorField(err))
		return
	}
	logger.Debug("Mirrored snapshot", logger.Int64("version", snap.Version))
}

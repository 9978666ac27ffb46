// Package recommendation holds the published recommendation snapshots.
//
// A snapshot is immutable once published. Every change, whether a new scan or
// a price refresh, is published as a new snapshot with a higher version.
// Publisher is the only writer; readers go through Store.Latest and always
// receive their own copy.
package recommendation

import (
	"context"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
)

// Store keeps the latest published snapshot
type Store interface {
	// Publish makes snap the latest snapshot. It fails with
	// models.ErrStaleSnapshot unless snap.Version is above the current one.
	Publish(ctx context.Context, snap *models.Snapshot) error

	// Latest returns a copy of the latest snapshot, or models.ErrSnapshotNotFound
	Latest(ctx context.Context) (*models.Snapshot, error)

	// Ranking returns up to limit markets of the latest snapshot by 24h traded value
	Ranking(ctx context.Context, limit int) ([]models.RankEntry, error)
}

// UpdateNotice is broadcast after every publish
type UpdateNotice struct {
	Version int64  `json:"version"`
	ScanID  string `json:"scan_id"`
}

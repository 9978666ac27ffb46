package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/data"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/recommendation"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

const (
	PriceSyncModePoll   = "poll"
	PriceSyncModeStream = "stream"
)

// PriceSyncConfig holds configuration for the price sync loop
type PriceSyncConfig struct {
	Interval time.Duration
	Mode     string
}

// DefaultPriceSyncConfig returns default configuration
func DefaultPriceSyncConfig() PriceSyncConfig {
	return PriceSyncConfig{
		Interval: 30 * time.Second,
		Mode:     PriceSyncModePoll,
	}
}

// PriceSync keeps the current price of published recommendations fresh
// between scans. Poll mode requests quotes every interval; stream mode
// follows the ticker websocket and applies the latest trade prices once
// per interval. Only current prices change, never the trade plan.
type PriceSync struct {
	config    PriceSyncConfig
	publisher *recommendation.Publisher
	source    data.Source
	streamer  data.PriceStreamer
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	running   bool
	stats     PriceSyncStats
}

// PriceSyncStats holds statistics about price sync
type PriceSyncStats struct {
	Syncs        int64
	Applied      int64
	Failures     int64
	Resubscribes int64
	LastSyncAt   time.Time
	mu           sync.RWMutex
}

// NewPriceSync creates a price sync loop. streamer may be nil in poll mode.
func NewPriceSync(config PriceSyncConfig, publisher *recommendation.Publisher, source data.Source, streamer data.PriceStreamer) (*PriceSync, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher cannot be nil")
	}
	if config.Interval <= 0 {
		config.Interval = DefaultPriceSyncConfig().Interval
	}
	switch config.Mode {
	case "":
		config.Mode = PriceSyncModePoll
	case PriceSyncModePoll, PriceSyncModeStream:
	default:
		return nil, fmt.Errorf("unknown price sync mode %q", config.Mode)
	}
	if config.Mode == PriceSyncModePoll && source == nil {
		return nil, fmt.Errorf("poll mode requires a market data source")
	}
	if config.Mode == PriceSyncModeStream && streamer == nil {
		return nil, fmt.Errorf("stream mode requires a price streamer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &PriceSync{
		config:    config,
		publisher: publisher,
		source:    source,
		streamer:  streamer,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start starts the price sync loop
func (ps *PriceSync) Start() error {
	ps.mu.Lock()
	if ps.running {
		ps.mu.Unlock()
		return fmt.Errorf("price sync is already running")
	}
	ps.running = true
	ps.mu.Unlock()

	logger.Info("Starting price sync",
		logger.String("mode", ps.config.Mode),
		logger.Duration("interval", ps.config.Interval),
	)

	ps.wg.Add(1)
	if ps.config.Mode == PriceSyncModeStream {
		go ps.runStream()
	} else {
		go ps.runPoll()
	}
	return nil
}

// Stop stops the loop and releases the stream connection
func (ps *PriceSync) Stop() {
	ps.mu.Lock()
	if !ps.running {
		ps.mu.Unlock()
		return
	}
	ps.running = false
	ps.mu.Unlock()

	ps.cancel()
	ps.wg.Wait()
	if ps.streamer != nil {
		if err := ps.streamer.Close(); err != nil {
			logger.Warn("Failed to close price streamer", logger.ErrorField(err))
		}
	}
	logger.Info("Price sync stopped")
}

// GetStats returns current price sync statistics
func (ps *PriceSync) GetStats() PriceSyncStats {
	ps.stats.mu.RLock()
	defer ps.stats.mu.RUnlock()
	return PriceSyncStats{
		Syncs:        ps.stats.Syncs,
		Applied:      ps.stats.Applied,
		Failures:     ps.stats.Failures,
		Resubscribes: ps.stats.Resubscribes,
		LastSyncAt:   ps.stats.LastSyncAt,
	}
}

func (ps *PriceSync) runPoll() {
	defer ps.wg.Done()

	ticker := time.NewTicker(ps.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ps.ctx.Done():
			return
		case <-ticker.C:
			ps.SyncOnce(ps.ctx)
		}
	}
}

// SyncOnce polls quotes for the published markets and applies them (exported for testing)
func (ps *PriceSync) SyncOnce(ctx context.Context) *models.Snapshot {
	markets := ps.publishedMarkets(ctx)
	if len(markets) == 0 {
		return nil
	}

	prices := make(map[string]float64, len(markets))
	for start := 0; start < len(markets); start += data.MaxSnapshotBatch {
		end := start + data.MaxSnapshotBatch
		if end > len(markets) {
			end = len(markets)
		}
		quotes, err := ps.source.Snapshot(ctx, markets[start:end])
		if err != nil {
			logger.Warn("Price poll failed, keeping previous prices", logger.ErrorField(err))
			logger.ErrorsTotal.WithLabelValues("price_sync", "snapshot").Inc()
			ps.recordSync(false, true)
			return nil
		}
		for _, q := range quotes {
			prices[q.Market] = q.TradePrice
		}
	}

	return ps.apply(ctx, prices)
}

func (ps *PriceSync) runStream() {
	defer ps.wg.Done()

	ticker := time.NewTicker(ps.config.Interval)
	defer ticker.Stop()

	var (
		subscribed string
		updates    <-chan models.PriceUpdate
		cancelSub  context.CancelFunc = func() {}
		pending                       = make(map[string]float64)
	)
	defer func() { cancelSub() }()

	subscribe := func() {
		markets := ps.publishedMarkets(ps.ctx)
		key := marketSetKey(markets)
		if key == subscribed && updates != nil {
			return
		}
		cancelSub()
		updates, subscribed = nil, ""
		if len(markets) == 0 {
			return
		}

		subCtx, cancel := context.WithCancel(ps.ctx)
		ch, err := ps.streamer.Stream(subCtx, markets)
		if err != nil {
			cancel()
			logger.Warn("Failed to subscribe to price stream", logger.ErrorField(err))
			logger.ErrorsTotal.WithLabelValues("price_sync", "subscribe").Inc()
			return
		}
		cancelSub, updates, subscribed = cancel, ch, key
		ps.stats.mu.Lock()
		ps.stats.Resubscribes++
		ps.stats.mu.Unlock()
		logger.Info("Subscribed to price stream", logger.Strings("markets", markets))
	}

	subscribe()
	for {
		select {
		case <-ps.ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				updates, subscribed = nil, ""
				continue
			}
			if u.TradePrice > 0 {
				pending[u.Market] = u.TradePrice
			}
		case <-ticker.C:
			if len(pending) > 0 {
				ps.apply(ps.ctx, pending)
				pending = make(map[string]float64)
			}
			subscribe()
		}
	}
}

func (ps *PriceSync) apply(ctx context.Context, prices map[string]float64) *models.Snapshot {
	next, err := ps.publisher.ApplyPrices(ctx, prices)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("Failed to apply prices", logger.ErrorField(err))
			logger.ErrorsTotal.WithLabelValues("price_sync", "apply").Inc()
		}
		ps.recordSync(false, true)
		return nil
	}
	ps.recordSync(next != nil, false)
	if next != nil {
		logger.Debug("Applied current prices",
			logger.Int64("version", next.Version),
			logger.Int("markets", len(prices)),
		)
	}
	return next
}

func (ps *PriceSync) publishedMarkets(ctx context.Context) []string {
	snap, err := ps.publisher.Store().Latest(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrSnapshotNotFound) {
			logger.Warn("Failed to read published recommendations", logger.ErrorField(err))
		}
		return nil
	}
	return snap.Markets()
}

func (ps *PriceSync) recordSync(applied, failed bool) {
	ps.stats.mu.Lock()
	defer ps.stats.mu.Unlock()

	ps.stats.Syncs++
	ps.stats.LastSyncAt = time.Now()
	if applied {
		ps.stats.Applied++
	}
	if failed {
		ps.stats.Failures++
	}
}

func marketSetKey(markets []string) string {
	sorted := append([]string(nil), markets...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

// Scanner produces one ranked recommendation list per call
type Scanner interface {
	RunScan(ctx context.Context) []models.Candidate
}

// SnapshotPublisher publishes scan results as new snapshot versions
type SnapshotPublisher interface {
	PublishScan(ctx context.Context, scanID string, ranked []models.Candidate) (*models.Snapshot, error)
}

// ScanLoopConfig holds configuration for the scan loop
type ScanLoopConfig struct {
	ScanInterval time.Duration // How often to run a scan (default: 1 hour)
	MaxScanTime  time.Duration // Scans slower than this are reported (default: 10 minutes)
}

// DefaultScanLoopConfig returns default configuration
func DefaultScanLoopConfig() ScanLoopConfig {
	return ScanLoopConfig{
		ScanInterval: 1 * time.Hour,
		MaxScanTime:  10 * time.Minute,
	}
}

// ScanLoop runs a scan immediately on start and then on a fixed interval,
// publishing every result
type ScanLoop struct {
	config    ScanLoopConfig
	scanner   Scanner
	publisher SnapshotPublisher
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	running   bool
	stats     ScanLoopStats
}

// ScanLoopStats holds statistics about the scan loop
type ScanLoopStats struct {
	ScanCycles          int64
	EmptyCycles         int64
	PublishFailures     int64
	CandidatesPublished int64
	LastScanID          string
	LastScanAt          time.Time
	ScanCycleTime       time.Duration // Last scan cycle time
	MaxScanCycleTime    time.Duration // Maximum scan cycle time observed
	MinScanCycleTime    time.Duration // Minimum scan cycle time observed
	AvgScanCycleTime    time.Duration // Average scan cycle time
	ScanCycleTimeSum    time.Duration // Sum of all scan cycle times (for average calculation)
	mu                  sync.RWMutex
}

// NewScanLoop creates a new scan loop
func NewScanLoop(config ScanLoopConfig, scanner Scanner, publisher SnapshotPublisher) *ScanLoop {
	if scanner == nil {
		panic("scanner cannot be nil")
	}
	if publisher == nil {
		panic("publisher cannot be nil")
	}
	if config.ScanInterval <= 0 {
		config.ScanInterval = DefaultScanLoopConfig().ScanInterval
	}
	if config.MaxScanTime <= 0 {
		config.MaxScanTime = DefaultScanLoopConfig().MaxScanTime
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ScanLoop{
		config:    config,
		scanner:   scanner,
		publisher: publisher,
		ctx:       ctx,
		cancel:    cancel,
		stats: ScanLoopStats{
			MinScanCycleTime: time.Hour, // Initialize to large value
		},
	}
}

// Start starts the scan loop
func (sl *ScanLoop) Start() error {
	sl.mu.Lock()
	if sl.running {
		sl.mu.Unlock()
		return fmt.Errorf("scan loop is already running")
	}
	sl.running = true
	sl.mu.Unlock()

	logger.Info("Starting scan loop",
		logger.Duration("scan_interval", sl.config.ScanInterval),
		logger.Duration("max_scan_time", sl.config.MaxScanTime),
	)

	sl.wg.Add(1)
	go sl.run()

	return nil
}

// Stop stops the scan loop and waits for an in-flight scan to return
func (sl *ScanLoop) Stop() {
	sl.mu.Lock()
	if !sl.running {
		sl.mu.Unlock()
		return
	}
	sl.running = false
	sl.mu.Unlock()

	logger.Info("Stopping scan loop")
	sl.cancel()
	sl.wg.Wait()
	logger.Info("Scan loop stopped")
}

// IsRunning returns whether the scan loop is running
func (sl *ScanLoop) IsRunning() bool {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.running
}

// GetStats returns current scan loop statistics
func (sl *ScanLoop) GetStats() ScanLoopStats {
	sl.stats.mu.RLock()
	defer sl.stats.mu.RUnlock()

	// Calculate average
	avgTime := time.Duration(0)
	if sl.stats.ScanCycles > 0 {
		avgTime = sl.stats.ScanCycleTimeSum / time.Duration(sl.stats.ScanCycles)
	}

	// Return a copy
	return ScanLoopStats{
		ScanCycles:          sl.stats.ScanCycles,
		EmptyCycles:         sl.stats.EmptyCycles,
		PublishFailures:     sl.stats.PublishFailures,
		CandidatesPublished: sl.stats.CandidatesPublished,
		LastScanID:          sl.stats.LastScanID,
		LastScanAt:          sl.stats.LastScanAt,
		ScanCycleTime:       sl.stats.ScanCycleTime,
		MaxScanCycleTime:    sl.stats.MaxScanCycleTime,
		MinScanCycleTime:    sl.stats.MinScanCycleTime,
		AvgScanCycleTime:    avgTime,
		ScanCycleTimeSum:    sl.stats.ScanCycleTimeSum,
	}
}

// run is the main scan loop
func (sl *ScanLoop) run() {
	defer sl.wg.Done()

	ticker := time.NewTicker(sl.config.ScanInterval)
	defer ticker.Stop()

	// Run initial scan immediately
	sl.Scan(sl.ctx)

	for {
		select {
		case <-sl.ctx.Done():
			return
		case <-ticker.C:
			sl.Scan(sl.ctx)
		}
	}
}

// Scan performs a single scan cycle and publishes its result (exported for testing)
func (sl *ScanLoop) Scan(ctx context.Context) *models.Snapshot {
	scanID := uuid.NewString()
	ctx = logger.WithScanID(ctx, scanID)
	startTime := time.Now()

	ranked := sl.scanner.RunScan(ctx)

	scanTime := time.Since(startTime)
	logger.ScanDuration.Observe(scanTime.Seconds())
	if scanTime > sl.config.MaxScanTime {
		logger.WithContext(ctx).Warn("Scan cycle exceeded max time",
			logger.Duration("scan_time", scanTime),
			logger.Duration("max_time", sl.config.MaxScanTime),
		)
	}

	status := "success"
	if len(ranked) == 0 {
		status = "empty"
	}

	snap, err := sl.publisher.PublishScan(ctx, scanID, ranked)
	if err != nil {
		status = "publish_failed"
		logger.WithContext(ctx).Error("Failed to publish scan result", logger.ErrorField(err))
		logger.ErrorsTotal.WithLabelValues("scanner", "publish").Inc()
	}
	logger.ScanCyclesTotal.WithLabelValues(status).Inc()

	sl.updateStats(scanID, scanTime, len(ranked), err != nil)
	return snap
}

// updateStats updates scan loop statistics
func (sl *ScanLoop) updateStats(scanID string, scanTime time.Duration, published int, failed bool) {
	sl.stats.mu.Lock()
	defer sl.stats.mu.Unlock()

	sl.stats.ScanCycles++
	sl.stats.LastScanID = scanID
	sl.stats.LastScanAt = time.Now()
	sl.stats.ScanCycleTime = scanTime
	sl.stats.ScanCycleTimeSum += scanTime

	if failed {
		sl.stats.PublishFailures++
	} else {
		sl.stats.CandidatesPublished += int64(published)
	}
	if published == 0 {
		sl.stats.EmptyCycles++
	}

	if scanTime > sl.stats.MaxScanCycleTime {
		sl.stats.MaxScanCycleTime = scanTime
	}

	if scanTime < sl.stats.MinScanCycleTime {
		sl.stats.MinScanCycleTime = scanTime
	}
}

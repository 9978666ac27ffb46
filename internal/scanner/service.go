package scanner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/analyzer"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/config"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/data"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/ranker"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/screener"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

// ServiceConfig holds the parameters of one market scan
type ServiceConfig struct {
	ChangeRateBand    float64
	SnapshotBatchSize int
	WorkerCount       int
	TopN              int
	ExcludeMarkets    []string
	Evaluator         screener.EvaluatorConfig
}

// DefaultServiceConfig returns the default scan parameters
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ChangeRateBand:    screener.DefaultChangeRateBand,
		SnapshotBatchSize: data.MaxSnapshotBatch,
		WorkerCount:       analyzer.DefaultWorkerCount,
		TopN:              ranker.DefaultTopN,
		Evaluator:         screener.DefaultEvaluatorConfig(),
	}
}

// ServiceConfigFrom maps the scanner configuration section
func ServiceConfigFrom(cfg config.ScannerConfig) ServiceConfig {
	sc := DefaultServiceConfig()
	sc.ChangeRateBand = cfg.ChangeRateBand
	sc.SnapshotBatchSize = cfg.SnapshotBatchSize
	sc.WorkerCount = cfg.WorkerCount
	sc.TopN = cfg.TopN
	sc.ExcludeMarkets = cfg.ExcludeMarkets
	sc.Evaluator.DailyCandles = cfg.DailyCandles
	sc.Evaluator.HourlyCandles = cfg.HourlyCandles
	sc.Evaluator.MAWindow = cfg.MAWindow
	return sc
}

// Service runs the scan pipeline: ticker discovery, volatility filter,
// parallel indicator evaluation and ranking. It keeps no state between
// scans and may be called concurrently.
type Service struct {
	source   data.Source
	filter   *screener.VolatilityFilter
	analyzer *analyzer.Analyzer
	topN     int
	exclude  map[string]struct{}
}

// NewService wires the pipeline stages over source
func NewService(source data.Source, cfg ServiceConfig) *Service {
	exclude := make(map[string]struct{}, len(cfg.ExcludeMarkets))
	for _, m := range cfg.ExcludeMarkets {
		exclude[m] = struct{}{}
	}

	return &Service{
		source:   source,
		filter:   screener.NewVolatilityFilter(source, cfg.ChangeRateBand, cfg.SnapshotBatchSize),
		analyzer: analyzer.New(screener.NewEvaluator(source, cfg.Evaluator), cfg.WorkerCount),
		topN:     cfg.TopN,
		exclude:  exclude,
	}
}

// RunScan performs one full scan and returns at most topN ranked candidates.
// Failing to list the ticker universe yields an empty result.
func (s *Service) RunScan(ctx context.Context) []models.Candidate {
	if logger.GetScanID(ctx) == "" {
		ctx = logger.WithScanID(ctx, uuid.NewString())
	}
	log := logger.WithContext(ctx)
	start := time.Now()

	tickers, err := s.source.ListTickers(ctx)
	if err != nil {
		log.Error("Failed to list tickers, scan yields no candidates", logger.ErrorField(err))
		logger.ErrorsTotal.WithLabelValues("scanner", "list_tickers").Inc()
		return []models.Candidate{}
	}
	tickers = s.excluded(tickers)
	logger.ScanStageTickers.WithLabelValues("universe").Set(float64(len(tickers)))

	quotes := s.filter.Filter(ctx, tickers)
	logger.ScanStageTickers.WithLabelValues("volatility").Set(float64(len(quotes)))
	log.Info("Volatility filter completed",
		logger.Int("universe", len(tickers)),
		logger.Int("passed", len(quotes)),
	)

	candidates := s.analyzer.Analyze(ctx, quotes)
	logger.ScanStageTickers.WithLabelValues("indicator").Set(float64(len(candidates)))

	ranked := ranker.Rank(candidates, s.topN)
	logger.ScanStageTickers.WithLabelValues("ranked").Set(float64(len(ranked)))

	log.Info("Scan completed",
		logger.Int("qualified", len(candidates)),
		logger.Int("ranked", len(ranked)),
		logger.Duration("duration", time.Since(start)),
	)
	return ranked
}

func (s *Service) excluded(tickers []string) []string {
	if len(s.exclude) == 0 {
		return tickers
	}
	kept := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, skip := s.exclude[t]; !skip {
			kept = append(kept, t)
		}
	}
	return kept
}

package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/screener"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

// DefaultWorkerCount is the number of concurrent per-ticker evaluations
const DefaultWorkerCount = 8

// Evaluator evaluates one ticker end to end
type Evaluator interface {
	Evaluate(ctx context.Context, quote models.Quote) screener.Evaluation
}

// Analyzer fans the indicator stage out over a fixed pool of workers
type Analyzer struct {
	evaluator Evaluator
	workers   int
}

// New creates an analyzer with the given pool size
func New(evaluator Evaluator, workers int) *Analyzer {
	if evaluator == nil {
		panic("evaluator cannot be nil")
	}
	if workers <= 0 {
		workers = DefaultWorkerCount
	}
	return &Analyzer{evaluator: evaluator, workers: workers}
}

// Workers returns the pool size
func (a *Analyzer) Workers() int {
	return a.workers
}

type job struct {
	index int
	quote models.Quote
}

// EvaluateAll evaluates every quote and returns the evaluations in input
// order. It returns only after every worker has finished. A panicking or
// failing evaluation is recorded as Unavailable and never affects the others.
func (a *Analyzer) EvaluateAll(ctx context.Context, quotes []models.Quote) []screener.Evaluation {
	results := make([]screener.Evaluation, len(quotes))
	if len(quotes) == 0 {
		return results
	}

	workers := a.workers
	if workers > len(quotes) {
		workers = len(quotes)
	}

	jobs := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = a.evaluate(ctx, j.quote)
			}
		}()
	}

	dispatched := 0
dispatch:
	for i, q := range quotes {
		select {
		case jobs <- job{index: i, quote: q}:
			dispatched++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	for i := dispatched; i < len(quotes); i++ {
		results[i] = screener.Unavailability(quotes[i].Market, screener.ReasonFetchFailed, ctx.Err())
		record(ctx, results[i])
	}

	return results
}

// Analyze returns the candidates of every qualifying quote, in input order
func (a *Analyzer) Analyze(ctx context.Context, quotes []models.Quote) []models.Candidate {
	start := time.Now()
	evaluations := a.EvaluateAll(ctx, quotes)

	candidates := make([]models.Candidate, 0)
	for _, ev := range evaluations {
		if ev.Qualified() {
			candidates = append(candidates, *ev.Candidate)
		}
	}

	logger.WithContext(ctx).Info("Indicator stage completed",
		logger.Int("evaluated", len(quotes)),
		logger.Int("qualified", len(candidates)),
		logger.Int("workers", a.workers),
		logger.Duration("duration", time.Since(start)),
	)
	return candidates
}

// evaluate runs one evaluation, converting a panic into absence
func (a *Analyzer) evaluate(ctx context.Context, quote models.Quote) (ev screener.Evaluation) {
	defer func() {
		if r := recover(); r != nil {
			ev = screener.Unavailability(quote.Market, screener.ReasonPanic, fmt.Errorf("panic: %v", r))
		}
		record(ctx, ev)
	}()

	return a.evaluator.Evaluate(ctx, quote)
}

func record(ctx context.Context, ev screener.Evaluation) {
	logger.TickerEvaluations.WithLabelValues(ev.Outcome.String(), ev.Reason).Inc()

	switch ev.Outcome {
	case screener.Unavailable:
		logger.WithContext(ctx).Warn("Ticker evaluation unavailable",
			logger.Market(ev.Market),
			logger.String("reason", ev.Reason),
			logger.ErrorField(ev.Err),
		)
	case screener.Rejected:
		logger.WithContext(ctx).Debug("Ticker rejected",
			logger.Market(ev.Market),
			logger.String("reason", ev.Reason),
		)
	}
}

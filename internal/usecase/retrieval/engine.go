package retrieval

import (
	"context"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tgassist/tgassist/internal/domain/search/result"
	"github.com/tgassist/tgassist/internal/logger"
)

// DefaultTierTimeout bounds a single tier attempt when none is configured.
const DefaultTierTimeout = 5 * time.Second

// Metrics are optional collectors; nil fields are skipped.
type Metrics struct {
	TierTotal *prometheus.CounterVec   // labels: tier, outcome
	Duration  *prometheus.HistogramVec // labels: tier
}

// Engine runs the tiers in order until one succeeds.
type Engine struct {
	strategies  []Strategy
	tierTimeout time.Duration
	metrics     Metrics
}

// New creates an Engine over an explicit ordered strategy list.
func New(strategies []Strategy, tierTimeout time.Duration, m Metrics) *Engine {
	if tierTimeout <= 0 {
		tierTimeout = DefaultTierTimeout
	}
	return &Engine{strategies: strategies, tierTimeout: tierTimeout, metrics: m}
}

// NewForStore wires the standard three tiers against one document store.
func NewForStore(store DocumentStore, tierTimeout time.Duration, m Metrics) *Engine {
	return New([]Strategy{
		NewSimilarityRPC(store),
		NewLocalCosine(store),
		NewSample(store),
	}, tierTimeout, m)
}

// Retrieve returns at most limit results sorted by similarity descending.
// It never fails: when every tier errors the result is empty.
func (e *Engine) Retrieve(ctx context.Context, vector []float32, limit int, threshold float64) []result.Result {
	if limit <= 0 {
		return []result.Result{}
	}

	log := logger.FromContext(ctx)
	q := Query{Vector: vector, Limit: limit, Threshold: clamp(threshold)}
	start := time.Now()

	for _, s := range e.strategies {
		if ctx.Err() != nil {
			break
		}

		results, err := e.attempt(ctx, s, q)
		if err != nil {
			e.countTier(s.Name(), "error")
			log.Warn("Retrieval tier failed, falling through",
				zap.String("tier", s.Name()),
				zap.Error(err),
			)
			continue
		}

		e.countTier(s.Name(), "success")
		e.observe(s.Name(), start)
		log.Debug("Retrieval completed",
			zap.String("tier", s.Name()),
			zap.Int("results", len(results)),
		)
		return result.SortAndLimit(results, limit)
	}

	e.observe("none", start)
	log.Error("All retrieval tiers failed", zap.Int("tiers", len(e.strategies)))
	return []result.Result{}
}

func (e *Engine) attempt(ctx context.Context, s Strategy, q Query) ([]result.Result, error) {
	tctx, cancel := context.WithTimeout(ctx, e.tierTimeout)
	defer cancel()

	results, err := s.Attempt(tctx, q)
	if err != nil {
		return nil, err //nolint:wrapcheck // strategies wrap their own errors
	}
	// A tier that overran its deadline may still have returned data; treat as failure.
	if tctx.Err() != nil {
		return nil, tctx.Err() //nolint:wrapcheck // context sentinel
	}
	return results, nil
}

func (e *Engine) countTier(tier, outcome string) {
	if e.metrics.TierTotal != nil {
		e.metrics.TierTotal.WithLabelValues(tier, outcome).Inc()
	}
}

func (e *Engine) observe(tier string, start time.Time) {
	if e.metrics.Duration != nil {
		e.metrics.Duration.WithLabelValues(tier).Observe(time.Since(start).Seconds())
	}
}

func clamp(threshold float64) float64 {
	if math.IsNaN(threshold) {
		return 0
	}
	return math.Max(0, math.Min(1, threshold))
}

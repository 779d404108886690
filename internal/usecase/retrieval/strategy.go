package retrieval

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tgassist/tgassist/internal/domain"
	domdoc "github.com/tgassist/tgassist/internal/domain/document"
	"github.com/tgassist/tgassist/internal/domain/search/result"
	"github.com/tgassist/tgassist/internal/logger"
)

// Tier names, used in logs and metric labels.
const (
	TierSimilarityRPC = "similarity_rpc"
	TierLocalCosine   = "local_cosine"
	TierSample        = "sample"
)

// Query is a normalized retrieval request.
type Query struct {
	Vector    []float32
	Limit     int
	Threshold float64
}

// Strategy is one retrieval tier. An error means "try the next tier".
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, q Query) ([]result.Result, error)
}

// SimilarityRPC delegates ranking to the store's similarity function.
type SimilarityRPC struct {
	searcher SimilaritySearcher
}

// NewSimilarityRPC creates the tier 1 strategy.
func NewSimilarityRPC(s SimilaritySearcher) *SimilarityRPC {
	return &SimilarityRPC{searcher: s}
}

// Name implements Strategy.
func (s *SimilarityRPC) Name() string { return TierSimilarityRPC }

// Attempt implements Strategy. An empty match set is a success.
func (s *SimilarityRPC) Attempt(ctx context.Context, q Query) ([]result.Result, error) {
	scored, err := s.searcher.SearchSimilar(ctx, q.Vector, q.Threshold, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("similarity rpc: %w", err)
	}

	out := make([]result.Result, 0, len(scored))
	for _, sd := range scored {
		// The function is trusted to filter; anything below threshold or non-finite is dropped regardless.
		if !isFinite(sd.Similarity) || sd.Similarity < q.Threshold {
			continue
		}
		out = append(out, result.FromScored(sd))
	}
	return out, nil
}

// LocalCosine scores every embedded document in process.
type LocalCosine struct {
	lister EmbeddedLister
}

// NewLocalCosine creates the tier 2 strategy.
func NewLocalCosine(l EmbeddedLister) *LocalCosine {
	return &LocalCosine{lister: l}
}

// Name implements Strategy.
func (s *LocalCosine) Name() string { return TierLocalCosine }

// Attempt implements Strategy. Zero-norm, non-finite and wrong-dimension documents
// are excluded; only similarity strictly above the threshold is kept.
func (s *LocalCosine) Attempt(ctx context.Context, q Query) ([]result.Result, error) {
	docs, err := s.lister.ListEmbedded(ctx)
	if err != nil {
		return nil, fmt.Errorf("list embedded: %w", err)
	}

	log := logger.FromContext(ctx)
	out := make([]result.Result, 0, q.Limit)
	skipped := 0

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("local cosine: %w", err)
		}

		doc := &docs[i]
		if !doc.HasEmbedding() {
			continue
		}

		sim, err := Cosine(q.Vector, doc.Embedding())
		if err != nil {
			if errors.Is(err, domain.ErrDimensionMismatch) ||
				errors.Is(err, domain.ErrZeroVector) ||
				errors.Is(err, domain.ErrNonFiniteScore) {
				skipped++
				continue
			}
			return nil, err
		}
		if sim <= q.Threshold {
			continue
		}
		out = append(out, result.FromScored(domdoc.Scored{Document: *doc, Similarity: sim}))
	}

	if skipped > 0 {
		log.Warn("Documents excluded from local scoring",
			zap.Int("skipped", skipped),
			zap.Int("total", len(docs)),
		)
	}

	return result.SortAndLimit(out, q.Limit), nil
}

// Sample returns unranked documents; it trades relevance for availability.
type Sample struct {
	sampler Sampler
}

// NewSample creates the tier 3 strategy.
func NewSample(s Sampler) *Sample {
	return &Sample{sampler: s}
}

// Name implements Strategy.
func (s *Sample) Name() string { return TierSample }

// Attempt implements Strategy. Every result has similarity 0 and Ranked() == false.
func (s *Sample) Attempt(ctx context.Context, q Query) ([]result.Result, error) {
	docs, err := s.sampler.ListSample(ctx, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list sample: %w", err)
	}

	out := make([]result.Result, 0, len(docs))
	for i := range docs {
		out = append(out, result.Unranked(docs[i]))
	}
	return out, nil
}

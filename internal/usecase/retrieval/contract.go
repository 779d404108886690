package retrieval

import (
	"context"

	domdoc "github.com/tgassist/tgassist/internal/domain/document"
)

// SimilaritySearcher is the server-side similarity function (tier 1).
type SimilaritySearcher interface {
	SearchSimilar(ctx context.Context, vector []float32, threshold float64, limit int) ([]domdoc.Scored, error)
}

// EmbeddedLister scans every document that has an embedding (tier 2).
type EmbeddedLister interface {
	ListEmbedded(ctx context.Context) ([]domdoc.Document, error)
}

// Sampler returns an arbitrary sample of documents (tier 3).
type Sampler interface {
	ListSample(ctx context.Context, limit int) ([]domdoc.Document, error)
}

// DocumentStore is satisfied by both document repositories.
type DocumentStore interface {
	SimilaritySearcher
	EmbeddedLister
	Sampler
}

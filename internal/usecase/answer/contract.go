package answer

import (
	"context"

	"github.com/tgassist/tgassist/internal/domain/search/result"
)

// Retriever finds stored materials close to a query vector.
type Retriever interface {
	Retrieve(ctx context.Context, vector []float32, limit int, threshold float64) []result.Result
}

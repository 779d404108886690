package retrieval

import (
	"fmt"
	"math"

	"github.com/tgassist/tgassist/internal/domain"
)

// Cosine returns dot(a, b) / (|a| * |b|), accumulated in float64.
// Vectors of different length return ErrDimensionMismatch; a zero-magnitude
// vector on either side returns ErrZeroVector; NaN or Inf components return
// ErrNonFiniteScore.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%d vs %d: %w", len(a), len(b), domain.ErrDimensionMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, domain.ErrZeroVector
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if !isFinite(sim) {
		return 0, domain.ErrNonFiniteScore
	}
	// Rounding can push parallel vectors slightly past 1.
	return math.Max(-1, math.Min(1, sim)), nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

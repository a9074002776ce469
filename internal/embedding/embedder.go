package embedding

import (
	"fmt"
	"math"

	"edurag/internal/domain"
)

// Embedder converts free text into numeric vector representations.
type Embedder = domain.Embedder

// L2Normalize scales v to unit length in place. Zero vectors are left untouched.
func L2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

// CheckBatch verifies that an embedder returned one vector of a consistent
// length per input text and reports that length.
func CheckBatch(texts []string, vectors [][]float32) (int, error) {
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	dim := 0
	for i, v := range vectors {
		if len(v) == 0 {
			return 0, fmt.Errorf("embedder returned an empty vector for text %d", i)
		}
		if dim == 0 {
			dim = len(v)
			continue
		}
		if len(v) != dim {
			return 0, fmt.Errorf("%w: vector %d has %d elements, want %d", domain.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return dim, nil
}

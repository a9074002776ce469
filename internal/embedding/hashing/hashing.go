package hashing

import (
	"context"
	"hash/fnv"
	"math"

	"edurag/internal/embedding"
	"edurag/internal/textutil"
)

// DefaultDimension is used when no positive dimension is configured.
const DefaultDimension = 384

// Embedder maps text to a fixed-size vector by hashing its word tokens into
// buckets (the "hashing trick"). It needs no vocabulary, so vectors stay
// comparable as documents are added and removed.
type Embedder struct {
	dimension int
}

var _ embedding.Embedder = (*Embedder)(nil)

// NewEmbedder creates a hashing embedder producing vectors of the given size.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hashing" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes one L2-normalized vector per text. Text without any
// non-stopword token yields a zero vector.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *Embedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	tf := make(map[string]int)
	var order []string
	for _, tok := range textutil.Tokens(text) {
		if tf[tok] == 0 {
			order = append(order, tok)
		}
		tf[tok]++
	}
	if len(order) == 0 {
		return vec
	}
	for _, tok := range order {
		count := tf[tok]
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dimension))
		// Sublinear term frequency, signed to spread collisions around zero.
		w := 1 + math.Log(float64(count))
		if (sum>>63)&1 == 1 {
			w = -w
		}
		vec[idx] += float32(w)
	}
	embedding.L2Normalize(vec)
	return vec
}

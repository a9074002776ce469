package memory

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/viant/vec/search"

	"edurag/internal/domain"
)

type entry struct {
	chunk     domain.Chunk
	magnitude float32
}

// Storage is an in-memory vector store using brute-force cosine similarity.
// Readers share the lock; Append, RemoveDocument, ReplaceDocument and Clear
// hold it exclusively.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry
}

func NewStorage() *Storage { return &Storage{} }

// Dimension returns the embedding size fixed by the first stored chunk, or 0.
func (s *Storage) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Storage) Append(chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prepared, dim, err := s.prepare(chunks)
	if err != nil {
		return err
	}
	s.dimension = dim
	s.entries = append(s.entries, prepared...)
	return nil
}

func (s *Storage) RemoveDocument(docID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(docID)
}

func (s *Storage) ReplaceDocument(docID string, chunks []domain.Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prepared, dim, err := s.prepare(chunks)
	if err != nil {
		return 0, err
	}
	removed := s.removeLocked(docID)
	if len(prepared) > 0 {
		s.dimension = dim
		s.entries = append(s.entries, prepared...)
	}
	return removed, nil
}

func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Search ranks every stored chunk against vector. Chunks whose similarity is
// undefined (zero-magnitude vectors) score -Inf. Equal scores keep insertion order.
func (s *Storage) Search(vector []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 || len(s.entries) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d elements, store has %d", domain.ErrDimensionMismatch, len(vector), s.dimension)
	}
	query := search.Float32s(vector)
	qm := query.Magnitude()
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(s.entries))
	for i := range s.entries {
		scores[i] = scored{idx: i, score: similarity(query, qm, s.entries[i])}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].score > scores[b].score })
	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, sc := range scores[:topK] {
		c := s.entries[sc.idx].chunk
		results = append(results, domain.SearchResult{Content: c.Text, Metadata: c.Metadata, Similarity: sc.score})
	}
	return results, nil
}

func (s *Storage) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return domain.Stats{}
	}
	docs := make(map[string]struct{})
	total := 0
	for _, e := range s.entries {
		docs[e.chunk.Metadata.DocID] = struct{}{}
		total += utf8.RuneCountInString(e.chunk.Text)
	}
	return domain.Stats{
		TotalChunks:        len(s.entries),
		UniqueDocuments:    len(docs),
		AverageChunkLength: float64(total) / float64(len(s.entries)),
	}
}

// prepare validates chunks against the store dimension and copies their
// embeddings. Must be called with the write lock held.
func (s *Storage) prepare(chunks []domain.Chunk) ([]entry, int, error) {
	dim := s.dimension
	out := make([]entry, 0, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return nil, 0, fmt.Errorf("chunk %d of %q has no embedding", i, c.Metadata.DocID)
		}
		if dim == 0 {
			dim = len(c.Embedding)
		}
		if len(c.Embedding) != dim {
			return nil, 0, fmt.Errorf("%w: chunk %d of %q has %d elements, want %d", domain.ErrDimensionMismatch, i, c.Metadata.DocID, len(c.Embedding), dim)
		}
		vec := make([]float32, dim)
		copy(vec, c.Embedding)
		c.Embedding = vec
		out = append(out, entry{chunk: c, magnitude: search.Float32s(vec).Magnitude()})
	}
	return out, dim, nil
}

func (s *Storage) removeLocked(docID string) int {
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.chunk.Metadata.DocID != docID {
			kept = append(kept, e)
		}
	}
	removed := len(s.entries) - len(kept)
	// drop references held by the tail of the backing array
	clear(s.entries[len(kept):])
	s.entries = kept
	return removed
}

func similarity(query search.Float32s, qm float32, e entry) float64 {
	if qm == 0 || e.magnitude == 0 {
		return math.Inf(-1)
	}
	sim := 1 - float64(query.CosineDistance(e.chunk.Embedding))
	if math.IsNaN(sim) {
		return math.Inf(-1)
	}
	return sim
}

package memory

import (
	"errors"
	"math"
	"testing"

	"edurag/internal/domain"
)

func chunk(docID string, idx, total int, text string, vec ...float32) domain.Chunk {
	return domain.Chunk{
		Text:      text,
		Embedding: vec,
		Metadata:  domain.Metadata{DocID: docID, DocName: docID + ".txt", ChunkIndex: idx, TotalChunks: total},
	}
}

func TestStorage_EmptyState(t *testing.T) {
	s := NewStorage()
	if got := s.Stats(); got != (domain.Stats{}) {
		t.Fatalf("Stats() on empty store = %+v, want zero", got)
	}
	res, err := s.Search([]float32{1, 0}, 3)
	if err != nil || len(res) != 0 {
		t.Fatalf("Search() on empty store = %v, %v; want empty, nil", res, err)
	}
}

func TestStorage_AppendFixesDimension(t *testing.T) {
	s := NewStorage()
	if err := s.Append([]domain.Chunk{chunk("a", 0, 1, "x", 1, 0, 0)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if s.Dimension() != 3 {
		t.Fatalf("Dimension() = %d, want 3", s.Dimension())
	}
	err := s.Append([]domain.Chunk{chunk("b", 0, 2, "y", 1, 0, 0), chunk("b", 1, 2, "z", 1, 0)})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("Append with wrong dimension error = %v, want ErrDimensionMismatch", err)
	}
	if s.Len() != 1 {
		t.Fatalf("failed Append changed the store: Len() = %d, want 1", s.Len())
	}
	s.Clear()
	if err := s.Append([]domain.Chunk{chunk("c", 0, 1, "w", 1, 0)}); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("dimension must survive Clear, got %v", err)
	}
}

func TestStorage_AppendCopiesEmbedding(t *testing.T) {
	s := NewStorage()
	vec := []float32{1, 0}
	if err := s.Append([]domain.Chunk{chunk("a", 0, 1, "x", vec...)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	vec[0], vec[1] = 0, 1
	res, err := s.Search([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if math.Abs(res[0].Similarity-1) > 1e-5 {
		t.Fatalf("stored embedding was mutated through caller slice: similarity %v", res[0].Similarity)
	}
}

func TestStorage_SearchRanksAndBreaksTiesByInsertion(t *testing.T) {
	s := NewStorage()
	err := s.Append([]domain.Chunk{
		chunk("a", 0, 1, "orthogonal", 0, 1),
		chunk("b", 0, 1, "tie first", 1, 1),
		chunk("c", 0, 1, "exact", 1, 0),
		chunk("d", 0, 1, "tie second", 1, 1),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	res, err := s.Search([]float32{1, 0}, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"exact", "tie first", "tie second", "orthogonal"}
	for i, w := range want {
		if res[i].Content != w {
			t.Fatalf("rank %d = %q, want %q (results %+v)", i, res[i].Content, w, res)
		}
	}
	if math.Abs(res[0].Similarity-1) > 1e-5 {
		t.Errorf("exact match similarity = %v, want 1", res[0].Similarity)
	}
	if math.Abs(res[3].Similarity) > 1e-5 {
		t.Errorf("orthogonal similarity = %v, want 0", res[3].Similarity)
	}
	if res, _ := s.Search([]float32{1, 0}, 2); len(res) != 2 {
		t.Errorf("Search(topK=2) returned %d results", len(res))
	}
}

func TestStorage_CosineSimilarityValues(t *testing.T) {
	s := NewStorage()
	if err := s.Append([]domain.Chunk{
		chunk("a", 0, 3, "same", 2, 0),
		chunk("a", 1, 3, "diagonal", 1, 1),
		chunk("a", 2, 3, "opposite", -3, 0),
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	res, err := s.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []float64{1, math.Sqrt2 / 2, -1}
	for i, r := range res {
		if math.Abs(r.Similarity-want[i]) > 1e-6 {
			t.Errorf("result %d (%s) similarity = %v, want %v", i, r.Content, r.Similarity, want[i])
		}
	}
}

func TestStorage_ZeroVectorsScoreNegativeInfinity(t *testing.T) {
	s := NewStorage()
	if err := s.Append([]domain.Chunk{chunk("z", 0, 2, "zero", 0, 0), chunk("z", 1, 2, "unit", 0, 1)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	res, err := s.Search([]float32{0, 1}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res[0].Content != "unit" || !math.IsInf(res[1].Similarity, -1) {
		t.Fatalf("unexpected ranking %+v", res)
	}
	res, err = s.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range res {
		if !math.IsInf(r.Similarity, -1) {
			t.Errorf("zero query similarity = %v, want -Inf", r.Similarity)
		}
	}
}

func TestStorage_SearchDimensionMismatch(t *testing.T) {
	s := NewStorage()
	if err := s.Append([]domain.Chunk{chunk("a", 0, 1, "x", 1, 0)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := s.Search([]float32{1, 0, 0}, 1); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("Search error = %v, want ErrDimensionMismatch", err)
	}
}

func TestStorage_RemoveDocumentPreservesOrder(t *testing.T) {
	s := NewStorage()
	err := s.Append([]domain.Chunk{
		chunk("a", 0, 2, "a0", 1, 0),
		chunk("b", 0, 1, "b0", 1, 0),
		chunk("a", 1, 2, "a1", 1, 0),
		chunk("c", 0, 1, "c0", 1, 0),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n := s.RemoveDocument("a"); n != 2 {
		t.Fatalf("RemoveDocument() = %d, want 2", n)
	}
	if n := s.RemoveDocument("missing"); n != 0 {
		t.Fatalf("RemoveDocument(missing) = %d, want 0", n)
	}
	res, _ := s.Search([]float32{1, 0}, 10)
	if len(res) != 2 || res[0].Content != "b0" || res[1].Content != "c0" {
		t.Fatalf("remaining chunks = %+v, want b0, c0", res)
	}
	if res[1].Metadata.ChunkIndex != 0 || res[1].Metadata.TotalChunks != 1 {
		t.Errorf("metadata of unrelated chunk changed: %+v", res[1].Metadata)
	}
}

func TestStorage_ReplaceDocument(t *testing.T) {
	s := NewStorage()
	if err := s.Append([]domain.Chunk{chunk("a", 0, 1, "old", 1, 0), chunk("b", 0, 1, "other", 0, 1)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	removed, err := s.ReplaceDocument("a", []domain.Chunk{chunk("a", 0, 2, "new0", 1, 0), chunk("a", 1, 2, "new1", 1, 0)})
	if err != nil || removed != 1 {
		t.Fatalf("ReplaceDocument() = %d, %v; want 1, nil", removed, err)
	}
	if got := s.Stats(); got.TotalChunks != 3 || got.UniqueDocuments != 2 {
		t.Fatalf("Stats() = %+v", got)
	}
	if _, err := s.ReplaceDocument("b", []domain.Chunk{chunk("b", 0, 1, "bad", 1, 0, 0)}); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("ReplaceDocument with bad dimension error = %v", err)
	}
	if got := s.Stats(); got.TotalChunks != 3 {
		t.Fatalf("failed replace changed the store: %+v", got)
	}
}

func TestStorage_Stats(t *testing.T) {
	s := NewStorage()
	err := s.Append([]domain.Chunk{
		chunk("a", 0, 2, "abcd", 1, 0),
		chunk("a", 1, 2, "ab", 1, 0),
		chunk("b", 0, 1, "ééé", 1, 0),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	got := s.Stats()
	want := domain.Stats{TotalChunks: 3, UniqueDocuments: 2, AverageChunkLength: 3}
	if got != want {
		t.Fatalf("Stats() = %+v, want %+v", got, want)
	}
}

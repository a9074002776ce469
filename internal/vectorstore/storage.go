package vectorstore

import "edurag/internal/domain"

// Storage holds chunks with their embeddings in insertion order and ranks
// them against a query vector.
type Storage interface {
	// Append stores chunks as one contiguous run. Either all chunks are stored or none.
	Append(chunks []domain.Chunk) error
	// RemoveDocument deletes every chunk of docID and reports how many were removed.
	RemoveDocument(docID string) int
	// ReplaceDocument removes docID and appends chunks in a single step.
	ReplaceDocument(docID string, chunks []domain.Chunk) (int, error)
	// Search returns up to topK chunks ranked by cosine similarity, best first.
	Search(vector []float32, topK int) ([]domain.SearchResult, error)
	Stats() domain.Stats
	Dimension() int
	Len() int
	Clear()
}

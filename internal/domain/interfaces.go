package domain

import "context"

// Document is a single study material handed to the engine for indexing.
type Document struct {
	ID   string
	Name string
	Path string
	Text string
}

// Metadata describes where a chunk came from.
type Metadata struct {
	DocID       string `json:"docId"`
	DocName     string `json:"docName"`
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
}

// Chunk is a contiguous, trimmed part of a document together with its embedding.
type Chunk struct {
	Text      string
	Embedding []float32
	Metadata  Metadata
}

// SearchResult is a copy of a matching chunk with its cosine similarity to the query.
type SearchResult struct {
	Content    string   `json:"content"`
	Metadata   Metadata `json:"metadata"`
	Similarity float64  `json:"similarity"`
}

// Stats summarizes the current content of a vector store.
type Stats struct {
	TotalChunks        int     `json:"totalChunks"`
	UniqueDocuments    int     `json:"uniqueDocuments"`
	AverageChunkLength float64 `json:"averageChunkLength"`
}

// Embedder converts a batch of texts into fixed-size vectors.
// Dimension reports 0 until the size is known.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits document text into overlapping pieces.
type Chunker interface {
	Chunk(text string) []string
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// RAGService defines the operations exposed by the retrieval engine.
type RAGService interface {
	Add(ctx context.Context, docID, docName, text string) (int, error)
	Remove(docID string) int
	Search(ctx context.Context, query string, topK int, minSimilarity float64) ([]SearchResult, error)
	Stats() Stats
	Clear()
}

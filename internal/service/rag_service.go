package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/go-logr/logr"

	"edurag/internal/domain"
	"edurag/internal/embedding"
	"edurag/internal/vectorstore"
)

const (
	DefaultTopK          = 3
	DefaultMinSimilarity = 0.3
)

// RAGService is the retrieval engine. It owns the vector store and mediates
// every mutation and query. Embeddings are computed before the store is
// locked so that searches are not blocked while a document is embedded.
type RAGService struct {
	chunker       domain.Chunker
	embedder      domain.Embedder
	store         vectorstore.Storage
	log           logr.Logger
	minTextLength int
}

var _ domain.RAGService = (*RAGService)(nil)

// Option configures a RAGService.
type Option func(*RAGService)

// WithLogger sets the logger used for ingest and search diagnostics.
func WithLogger(l logr.Logger) Option {
	return func(s *RAGService) { s.log = l }
}

// WithMinTextLength makes IngestBatch skip documents whose trimmed text is
// shorter than n characters.
func WithMinTextLength(n int) Option {
	return func(s *RAGService) { s.minTextLength = n }
}

func NewRAGService(chunker domain.Chunker, embedder domain.Embedder, store vectorstore.Storage, opts ...Option) *RAGService {
	s := &RAGService{chunker: chunker, embedder: embedder, store: store, log: logr.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add chunks and embeds text and appends the chunks tagged with docID.
// Empty text is a no-op. On failure the store is left unchanged.
func (s *RAGService) Add(ctx context.Context, docID, docName, text string) (int, error) {
	chunks, err := s.prepare(ctx, docID, docName, text)
	if err != nil || len(chunks) == 0 {
		return 0, err
	}
	if err := s.store.Append(chunks); err != nil {
		return 0, fmt.Errorf("store chunks of %s: %w", docID, err)
	}
	s.log.Info("added document", "docId", docID, "docName", docName, "chunks", len(chunks), "total", s.store.Len())
	return len(chunks), nil
}

// Replace re-indexes docID: the new text is embedded first, then the old
// chunks are removed and the new ones appended in one store operation.
// Empty text removes the document.
func (s *RAGService) Replace(ctx context.Context, docID, docName, text string) (int, error) {
	chunks, err := s.prepare(ctx, docID, docName, text)
	if err != nil {
		return 0, err
	}
	removed, err := s.store.ReplaceDocument(docID, chunks)
	if err != nil {
		return 0, fmt.Errorf("replace chunks of %s: %w", docID, err)
	}
	s.log.Info("replaced document", "docId", docID, "docName", docName, "removed", removed, "chunks", len(chunks))
	return len(chunks), nil
}

// Remove deletes every chunk of docID. Unknown ids are a no-op.
func (s *RAGService) Remove(docID string) int {
	n := s.store.RemoveDocument(docID)
	s.log.Info("removed document", "docId", docID, "chunks", n)
	return n
}

// Clear removes every chunk from the store.
func (s *RAGService) Clear() {
	s.store.Clear()
	s.log.Info("cleared store")
}

// Search embeds query once and returns the topK most similar chunks whose
// similarity is at least minSimilarity. The floor is applied after the
// top-K selection, so fewer than topK results may come back. An empty
// query, an empty store or a non-positive topK yields no results.
func (s *RAGService) Search(ctx context.Context, query string, topK int, minSimilarity float64) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" || topK <= 0 {
		return nil, nil
	}
	if s.store.Len() == 0 {
		s.log.V(1).Info("search on empty store")
		return nil, nil
	}
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if _, err := embedding.CheckBatch([]string{query}, vecs); err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingUnavailable, err)
	}
	ranked, err := s.store.Search(vecs[0], topK)
	if err != nil {
		return nil, fmt.Errorf("search store: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		// Undefined similarity (-Inf) is excluded even by a -Inf floor.
		if !math.IsInf(r.Similarity, -1) && r.Similarity >= minSimilarity {
			results = append(results, r)
		}
	}
	if len(results) > 0 {
		s.log.V(1).Info("search", "query", query, "results", len(results), "best", results[0].Similarity)
	} else {
		s.log.V(1).Info("no chunks above similarity threshold", "query", query, "minSimilarity", minSimilarity)
	}
	return results, nil
}

// Stats reports the current store content.
func (s *RAGService) Stats() domain.Stats {
	return s.store.Stats()
}

// IngestBatch adds documents in order and reports the outcome of each one.
// A failing document does not stop the batch; a cancelled context does.
func (s *RAGService) IngestBatch(ctx context.Context, docs []domain.Document) domain.IngestReport {
	report := domain.IngestReport{Results: make([]domain.IngestResult, 0, len(docs))}
	for _, d := range docs {
		res := domain.IngestResult{DocID: d.ID, DocName: d.Name}
		switch {
		case ctx.Err() != nil:
			res.Err = fmt.Errorf("ingest %s: %w", d.Name, ctx.Err())
		case len([]rune(strings.TrimSpace(d.Text))) < s.minTextLength:
			res.Skipped = true
			s.log.Info("skipping document with too little text", "docId", d.ID, "docName", d.Name)
		default:
			n, err := s.Add(ctx, d.ID, d.Name, d.Text)
			if err != nil {
				res.Err = fmt.Errorf("ingest %s: %w", d.Name, err)
				s.log.Error(err, "failed to ingest document", "docId", d.ID, "docName", d.Name)
			}
			res.Chunks = n
			res.Skipped = err == nil && n == 0
		}
		report.Results = append(report.Results, res)
	}
	stats := s.store.Stats()
	s.log.Info("ingest finished", "documents", len(docs), "succeeded", report.Succeeded(),
		"skipped", report.Skipped(), "failed", len(report.Failed()),
		"totalChunks", stats.TotalChunks, "uniqueDocuments", stats.UniqueDocuments)
	return report
}

// prepare chunks text and embeds all chunks with one embedder call.
func (s *RAGService) prepare(ctx context.Context, docID, docName, text string) ([]domain.Chunk, error) {
	if text == "" {
		s.log.Info("empty text, nothing to add", "docId", docID, "docName", docName)
		return nil, nil
	}
	texts := s.chunker.Chunk(text)
	if len(texts) == 0 {
		s.log.Info("no chunks created", "docId", docID, "docName", docName)
		return nil, nil
	}
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed %s: %w", domain.ErrEmbeddingUnavailable, docID, err)
	}
	if _, err := embedding.CheckBatch(texts, vecs); err != nil {
		return nil, fmt.Errorf("%w: embed %s: %w", domain.ErrEmbeddingUnavailable, docID, err)
	}
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{
			Text:      t,
			Embedding: vecs[i],
			Metadata: domain.Metadata{
				DocID:       docID,
				DocName:     docName,
				ChunkIndex:  i,
				TotalChunks: len(texts),
			},
		}
	}
	return chunks, nil
}

package chunker

import (
	"fmt"
	"strings"

	"edurag/internal/domain"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Window splits text into fixed-size character windows that overlap by a
// constant number of characters. A window starts at every multiple of the
// stride below the text length, so the final window may be shorter than the
// window size. It has no notion of sentences.
type Window struct {
	size    int
	overlap int
}

// New validates the parameters and returns a window chunker.
func New(chunkSize, overlap int) (*Window, error) {
	if chunkSize <= 0 || overlap < 0 || chunkSize <= overlap {
		return nil, fmt.Errorf("%w: chunk size %d, overlap %d", domain.ErrInvalidChunking, chunkSize, overlap)
	}
	return &Window{size: chunkSize, overlap: overlap}, nil
}

// Size returns the window length in characters.
func (w *Window) Size() int { return w.size }

// Overlap returns the number of characters shared by consecutive windows.
func (w *Window) Overlap() int { return w.overlap }

// Chunk returns the trimmed, non-empty windows of text in order.
func (w *Window) Chunk(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	n := len(runes)
	stride := w.size - w.overlap
	var chunks []string
	for start := 0; start < n; start += stride {
		end := min(start+w.size, n)
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

package domain

import "errors"

var (
	// ErrInvalidChunking is returned when chunk size does not exceed the overlap.
	ErrInvalidChunking = errors.New("invalid chunking parameters")
	// ErrEmbeddingUnavailable wraps any failure of the embedding capability.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrDimensionMismatch is returned when an embedding does not match the store dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

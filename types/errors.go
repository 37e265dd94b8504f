package types

import "errors"

// Failure taxonomy of the ingestion and retrieval pipelines. Handlers map
// these to HTTP status codes; everything else surfaces as an internal error.
var (
	ErrUnsupportedMediaType = errors.New("unsupported file type")
	ErrDecoding             = errors.New("file is not valid UTF-8 text")
	ErrExtraction           = errors.New("failed to extract text from file")
	ErrInvalidChunkSize     = errors.New("chunk_size must be positive")
	ErrNotFound             = errors.New("not found")
)

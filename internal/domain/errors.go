package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a malformed search or browse request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a chat completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrIndexUnavailable signals that the vector index could not serve a request.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrExtractionFailed signals that no facets could be read from a completion.
	ErrExtractionFailed = errors.New("intent extraction failed")
)

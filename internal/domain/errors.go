package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a missing or malformed request payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRetrievalFailed signals a vector index failure.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrGenerationFailed signals a completion provider failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrForbiddenDomain signals an ingestion URL outside the allowed domains.
	ErrForbiddenDomain = errors.New("url domain not allowed")
	// ErrIncompleteRecord signals a scraped record missing required fields.
	ErrIncompleteRecord = errors.New("scraped record is incomplete")
)

// KeyPrefix namespaces every Redis key owned by this service.
const KeyPrefix = "cowlitea:"

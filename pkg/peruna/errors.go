package peruna

import "github.com/kailas-cloud/peruna/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrInvalidDocument        = domain.ErrInvalidDocument
	ErrDuplicateID            = domain.ErrDuplicateID
	ErrDimensionMismatch      = domain.ErrDimensionMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrUninitializedStore     = domain.ErrUninitializedStore
)

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument signals a document that fails validation.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrDuplicateID signals two documents sharing an id within one store.
	ErrDuplicateID = errors.New("duplicate document id")
	// ErrDimensionMismatch signals vectors of unequal length. Always a defect.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure
	// (network, auth, timeout, malformed response).
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrIndexProviderError signals a remote vector index failure.
	ErrIndexProviderError = errors.New("vector index provider error")
	// ErrUninitializedStore signals a read from a document store that has not loaded.
	ErrUninitializedStore = errors.New("document store not initialized")
	// ErrInvalidQuery signals an unusable chat or search input.
	ErrInvalidQuery = errors.New("invalid query")
)

// DimensionMismatchError wraps ErrDimensionMismatch with both lengths.
type DimensionMismatchError struct {
	Left, Right int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %d != %d", ErrDimensionMismatch.Error(), e.Left, e.Right)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(left, right int) error {
	return &DimensionMismatchError{Left: left, Right: right}
}

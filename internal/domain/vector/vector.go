// Package vector holds the similarity math shared by every retrieval backend.
package vector

import (
	"math"

	"github.com/kailas-cloud/peruna/internal/domain"
)

// CosineSimilarity returns dot(a,b) / (|a| * |b|).
// The result is 0 when either vector has zero magnitude. Unequal lengths are a
// programming error and return domain.ErrDimensionMismatch.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionMismatch(len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// MustCosineSimilarity is CosineSimilarity for callers that already guarantee equal lengths.
// It panics on mismatch.
func MustCosineSimilarity(a, b []float32) float64 {
	s, err := CosineSimilarity(a, b)
	if err != nil {
		panic(err)
	}
	return s
}

// IsZero reports whether every component is 0.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

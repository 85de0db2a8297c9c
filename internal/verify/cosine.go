package verify

import "math"

// Cosine returns the cosine similarity of two vectors: (a·b)/(|a||b|).
// Mismatched lengths and zero-norm vectors return 0 so a degenerate enrolled
// or probe embedding is simply a non-match, never a division error.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

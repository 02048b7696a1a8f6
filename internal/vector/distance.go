package vector

import "math"

// EuclideanDistance computes the Euclidean (L2) distance between two vectors.
// Returns +Inf for mismatched or empty inputs so callers never mistake
// invalid input for a close match.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Confidence converts a distance into a score in [0, 1].
// confidence = max(0, 1 - distance); a distance of 0 is a perfect match.
func Confidence(distance float64) float64 {
	c := 1 - distance
	if c < 0 {
		return 0
	}
	return c
}

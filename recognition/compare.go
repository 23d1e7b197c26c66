package recognition

import "gonum.org/v1/gonum/floats"

// Similarity scores two descriptors as max(0, 1 - euclidean_distance). The
// external model is trained so that same-identity distances are typically
// well under 1.0, so this remaps "lower is better" distance onto a [0,1]
// "higher is better" scale for threshold comparisons.
func Similarity(a, b Descriptor) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	dist := floats.Distance(a, b, 2)
	if dist >= 1 {
		return 0
	}
	return 1 - dist
}

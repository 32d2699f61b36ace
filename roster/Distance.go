package roster

import (
	"math"

	"face-attendance/model"
)

// DefaultTolerance is the usual dlib threshold for "same person".
const DefaultTolerance = 0.6

// FaceDistance is the Euclidean distance between two descriptors.
func FaceDistance(a, b model.Descriptor) float64 {
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// FaceDistances returns the distance from d to every known descriptor, in order.
func FaceDistances(known []model.Descriptor, d model.Descriptor) []float64 {
	distances := make([]float64, len(known))
	for i, k := range known {
		distances[i] = FaceDistance(k, d)
	}
	return distances
}

// CompareFaces reports which known descriptors are within tolerance of d.
// A non-positive tolerance means DefaultTolerance.
func CompareFaces(known []model.Descriptor, d model.Descriptor, tolerance float64) []bool {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	distances := FaceDistances(known, d)
	matches := make([]bool, len(distances))
	for i, distance := range distances {
		matches[i] = distance <= tolerance
	}
	return matches
}

// argmin returns the index of the smallest value, the first one on ties, or
// -1 for an empty slice.
func argmin(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v < values[best] {
			best = i
		}
	}
	return best
}

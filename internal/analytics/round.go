package analytics

import "math"

// round2 rounds half-up to two decimal places: 33.333 -> 33.33, 33.335 -> 33.34.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

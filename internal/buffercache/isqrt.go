package buffercache

import "math"

// isqrtFloor returns floor(sqrt(n)) as a float64, matching spec §4.5's
// farthest_distance = floor(sqrt(farthest_distance_sq)).
func isqrtFloor(n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Floor(math.Sqrt(float64(n)))
}

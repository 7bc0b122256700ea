package math

import (
	"math"
	"strconv"
)

// Format formats a float with 4 decimals, the precision of the leaderboard.
func Format(f float64) string {
	return FormatP(f, 4)
}

// FormatP formats a float based on the given precision.
func FormatP(f float64, precision int) string {
	if math.IsNaN(f) {
		return "-"
	}
	return strconv.FormatFloat(f, 'f', precision, 64)
}

// Round rounds the value to the given number of decimals.
func Round(f float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(f*p) / p
}

// ArgMax returns the index of the largest element, -1 for an empty slice.
// Ties resolve to the lowest index.
func ArgMax(ff []float64) int {
	idx := -1
	best := math.Inf(-1)
	for i, f := range ff {
		if f > best {
			best = f
			idx = i
		}
	}
	return idx
}

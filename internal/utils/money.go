package utils

import "math"

// Round2 rounds a monetary amount to cent precision before it is embedded
// in an order record.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package domain

import (
	"math"
	"strconv"
)

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatHours(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', 2, 64)
}

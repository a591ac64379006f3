package ui

import (
	"fmt"
	"math"
)

// truncate shortens s to length runes, marking the cut with "...".
func truncate(s string, length int) string {
	if length <= 3 {
		return "..."
	}
	r := []rune(s)
	if len(r) > length {
		return string(r[:length-3]) + "..."
	}
	return s
}

// clockTime formats seconds as m:ss.
func clockTime(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "0:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Package report renders comparison and trend results as console text
// and markdown.
package report

import (
	"fmt"
	"math"
)

// FormatNs formats a nanosecond duration into a human-readable unit.
func FormatNs(ns float64) string {
	switch {
	case ns < 1_000:
		return fmt.Sprintf("%.1fns", ns)
	case ns < 1_000_000:
		return fmt.Sprintf("%.1fµs", ns/1_000)
	case ns < 1_000_000_000:
		return fmt.Sprintf("%.1fms", ns/1_000_000)
	default:
		return fmt.Sprintf("%.2fs", ns/1_000_000_000)
	}
}

// formatRatio renders current/baseline style ratios, guarding division
// by zero with an infinity marker.
func formatRatio(numerator, denominator float64) string {
	if denominator == 0 {
		return "∞"
	}

	ratio := numerator / denominator
	if math.IsInf(ratio, 0) {
		return "∞"
	}

	return fmt.Sprintf("%.2f", ratio)
}

package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNs(t *testing.T) {
	tests := []struct {
		name     string
		ns       float64
		expected string
	}{
		{name: "nanoseconds", ns: 123.4, expected: "123.4ns"},
		{name: "zero", ns: 0, expected: "0.0ns"},
		{name: "microseconds", ns: 45_600, expected: "45.6µs"},
		{name: "milliseconds", ns: 12_300_000, expected: "12.3ms"},
		{name: "seconds", ns: 2_500_000_000, expected: "2.50s"},
		{name: "microsecond boundary", ns: 1_000, expected: "1.0µs"},
		{name: "millisecond boundary", ns: 1_000_000, expected: "1.0ms"},
		{name: "second boundary", ns: 1_000_000_000, expected: "1.00s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatNs(tt.ns))
		})
	}
}

func TestFormatRatio(t *testing.T) {
	tests := []struct {
		name        string
		numerator   float64
		denominator float64
		expected    string
	}{
		{name: "simple ratio", numerator: 150, denominator: 100, expected: "1.50"},
		{name: "below one", numerator: 50, denominator: 100, expected: "0.50"},
		{name: "zero denominator", numerator: 100, denominator: 0, expected: "∞"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatRatio(tt.numerator, tt.denominator))
		})
	}
}

package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/regressoor/pkg/analysis"
)

func testComparison() *analysis.Comparison {
	return &analysis.Comparison{
		Regressions: []analysis.Change{
			{Benchmark: "slow/minor", ChangePercent: 12, CurrentNs: 1120, BaselineNs: 1000},
			{Benchmark: "slow/major", ChangePercent: 50, CurrentNs: 1500, BaselineNs: 1000},
		},
		Improvements: []analysis.Change{
			{Benchmark: "fast/one", ChangePercent: -25, CurrentNs: 750, BaselineNs: 1000},
		},
		Stable: []analysis.Change{
			{Benchmark: "steady", ChangePercent: 1, CurrentNs: 1010, BaselineNs: 1000},
		},
		New: []analysis.NewBenchmark{
			{Benchmark: "fresh", MeanNs: 2000},
		},
		Summary: &analysis.Summary{
			TotalBenchmarks: 5,
			Regressions:     2,
			Improvements:    1,
			Stable:          1,
			New:             1,
			AvgChange:       9.5,
			MedianChange:    6.5,
			MaxRegression:   50,
			MaxImprovement:  25,
		},
	}
}

func TestComparisonMarkdown(t *testing.T) {
	generatedAt := time.Date(2026, 8, 26, 15, 4, 5, 0, time.UTC)
	md := ComparisonMarkdown(testComparison(), generatedAt)

	assert.Contains(t, md, "# Performance Analysis Report")
	assert.Contains(t, md, "Generated: 2026-08-26 15:04:05")

	assert.Contains(t, md, "- Total benchmarks: 5")
	assert.Contains(t, md, "- Regressions: 2")
	assert.Contains(t, md, "- Average change: 9.5%")

	assert.Contains(t, md, "| slow/major | +50.0% | 1.5µs | 1.0µs | 1.50x |")
	assert.Contains(t, md, "| fast/one | -25.0% | 750.0ns | 1.0µs | 1.33x |")
	assert.Contains(t, md, "- fresh: 2.0µs")
	assert.Contains(t, md, "No significant changes detected in 1 benchmarks.")

	// Regressions are ordered worst first.
	assert.Less(t,
		strings.Index(md, "slow/major"),
		strings.Index(md, "slow/minor"),
	)
}

func TestComparisonMarkdownOmitsEmptySections(t *testing.T) {
	md := ComparisonMarkdown(&analysis.Comparison{
		Stable: []analysis.Change{
			{Benchmark: "steady", ChangePercent: 0, CurrentNs: 100, BaselineNs: 100},
		},
		Summary: &analysis.Summary{TotalBenchmarks: 1, Stable: 1},
	}, time.Now())

	assert.NotContains(t, md, "Performance Regressions")
	assert.NotContains(t, md, "Performance Improvements")
	assert.NotContains(t, md, "New Benchmarks")
	assert.Contains(t, md, "Stable Benchmarks")
}

func TestTrendsMarkdown(t *testing.T) {
	rep := &analysis.TrendReport{
		PeriodDays:        30,
		BaselinesAnalyzed: 8,
		Trends: map[string]analysis.Trend{
			"worsening": {
				Direction:     analysis.TrendDegrading,
				ChangePercent: 18.2,
				FirstValue:    1000,
				LastValue:     1182,
				DataPoints:    8,
			},
			"better": {
				Direction:     analysis.TrendImproving,
				ChangePercent: -9.1,
				FirstValue:    1100,
				LastValue:     1000,
				DataPoints:    8,
			},
		},
	}

	md := TrendsMarkdown(rep, time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC))

	assert.Contains(t, md, "# Performance Trend Report")
	assert.Contains(t, md, "Analyzed 8 baselines over 30 days.")
	assert.Contains(t, md, "| worsening | +18.2% | 1.0µs | 1.2µs | 8 |")
	assert.Contains(t, md, "| better | -9.1% | 1.1µs | 1.0µs | 8 |")
	assert.NotContains(t, md, "⚪ Stable")
}

func TestWriteComparison(t *testing.T) {
	var buf bytes.Buffer

	WriteComparison(&buf, testComparison())
	out := buf.String()

	assert.Contains(t, out, "🔴 PERFORMANCE REGRESSIONS DETECTED:")
	assert.Contains(t, out, "slow/major: +50.0% slower")
	assert.Contains(t, out, "fast/one: +25.0% faster")
	assert.Contains(t, out, "fresh: 2.0µs")
	assert.Contains(t, out, "Max regression: +50.0%")
	assert.NotContains(t, out, "No significant performance changes")
}

func TestWriteComparisonQuiet(t *testing.T) {
	var buf bytes.Buffer

	WriteComparison(&buf, &analysis.Comparison{
		Stable: []analysis.Change{
			{Benchmark: "steady", ChangePercent: 0, CurrentNs: 100, BaselineNs: 100},
		},
		Summary: &analysis.Summary{TotalBenchmarks: 1, Stable: 1},
	})

	assert.Contains(t, buf.String(), "✅ No significant performance changes detected")
}

func TestWriteTrends(t *testing.T) {
	var buf bytes.Buffer

	WriteTrends(&buf, &analysis.TrendReport{
		PeriodDays:        7,
		BaselinesAnalyzed: 3,
		Trends: map[string]analysis.Trend{
			"worsening": {Direction: analysis.TrendDegrading, ChangePercent: 12.5},
		},
	})

	out := buf.String()
	require.Contains(t, out, "Analyzed 3 baselines over 7 days")
	assert.Contains(t, out, "🔴 Degrading trends (1 benchmarks):")
	assert.Contains(t, out, "worsening: +12.5% over period")
}

func TestSortedByMagnitudeDesc(t *testing.T) {
	sorted := sortedByMagnitudeDesc([]analysis.Change{
		{Benchmark: "small", ChangePercent: -5},
		{Benchmark: "large", ChangePercent: -40},
		{Benchmark: "mid", ChangePercent: -15},
	})

	assert.Equal(t, "large", sorted[0].Benchmark)
	assert.Equal(t, "mid", sorted[1].Benchmark)
	assert.Equal(t, "small", sorted[2].Benchmark)
}

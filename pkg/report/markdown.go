package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethpandaops/regressoor/pkg/analysis"
)

// ComparisonMarkdown renders a detailed markdown report for a comparison.
func ComparisonMarkdown(cmp *analysis.Comparison, generatedAt time.Time) string {
	var sb strings.Builder

	sb.Grow(4096)

	sb.WriteString("# Performance Analysis Report\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n",
		generatedAt.UTC().Format("2006-01-02 15:04:05"))

	writeSummary(&sb, cmp.Summary)
	writeRegressions(&sb, cmp.Regressions)
	writeImprovements(&sb, cmp.Improvements)
	writeNewBenchmarks(&sb, cmp.New)

	if len(cmp.Stable) > 0 {
		sb.WriteString("## ✅ Stable Benchmarks\n")
		fmt.Fprintf(&sb, "No significant changes detected in %d benchmarks.\n\n",
			len(cmp.Stable))
	}

	return sb.String()
}

func writeSummary(sb *strings.Builder, summary *analysis.Summary) {
	if summary == nil {
		return
	}

	sb.WriteString("## Summary\n")
	fmt.Fprintf(sb, "- Total benchmarks: %d\n", summary.TotalBenchmarks)
	fmt.Fprintf(sb, "- Regressions: %d\n", summary.Regressions)
	fmt.Fprintf(sb, "- Improvements: %d\n", summary.Improvements)
	fmt.Fprintf(sb, "- Stable: %d\n", summary.Stable)
	fmt.Fprintf(sb, "- New benchmarks: %d\n", summary.New)
	fmt.Fprintf(sb, "- Average change: %.1f%%\n", summary.AvgChange)
	fmt.Fprintf(sb, "- Median change: %.1f%%\n\n", summary.MedianChange)
}

func writeRegressions(sb *strings.Builder, regressions []analysis.Change) {
	if len(regressions) == 0 {
		return
	}

	sb.WriteString("## 🔴 Performance Regressions\n")
	sb.WriteString("| Benchmark | Change | Current | Baseline | Ratio |\n")
	sb.WriteString("|-----------|--------|---------|----------|-------|\n")

	for _, r := range sortedByChangeDesc(regressions) {
		fmt.Fprintf(sb, "| %s | +%.1f%% | %s | %s | %sx |\n",
			r.Benchmark,
			r.ChangePercent,
			FormatNs(r.CurrentNs),
			FormatNs(r.BaselineNs),
			formatRatio(r.CurrentNs, r.BaselineNs),
		)
	}

	sb.WriteByte('\n')
}

func writeImprovements(sb *strings.Builder, improvements []analysis.Change) {
	if len(improvements) == 0 {
		return
	}

	sb.WriteString("## 🟢 Performance Improvements\n")
	sb.WriteString("| Benchmark | Change | Current | Baseline | Ratio |\n")
	sb.WriteString("|-----------|--------|---------|----------|-------|\n")

	for _, i := range sortedByMagnitudeDesc(improvements) {
		fmt.Fprintf(sb, "| %s | -%.1f%% | %s | %s | %sx |\n",
			i.Benchmark,
			-i.ChangePercent,
			FormatNs(i.CurrentNs),
			FormatNs(i.BaselineNs),
			formatRatio(i.BaselineNs, i.CurrentNs),
		)
	}

	sb.WriteByte('\n')
}

func writeNewBenchmarks(sb *strings.Builder, benches []analysis.NewBenchmark) {
	if len(benches) == 0 {
		return
	}

	sb.WriteString("## 🆕 New Benchmarks\n")

	for _, b := range benches {
		fmt.Fprintf(sb, "- %s: %s\n", b.Benchmark, FormatNs(b.MeanNs))
	}

	sb.WriteByte('\n')
}

// TrendsMarkdown renders a markdown section for a trend report.
func TrendsMarkdown(rep *analysis.TrendReport, generatedAt time.Time) string {
	var sb strings.Builder

	sb.Grow(2048)

	sb.WriteString("# Performance Trend Report\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n",
		generatedAt.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Analyzed %d baselines over %d days.\n\n",
		rep.BaselinesAnalyzed, rep.PeriodDays)

	writeTrendTable(&sb, rep, analysis.TrendDegrading, "## 🔴 Degrading")
	writeTrendTable(&sb, rep, analysis.TrendImproving, "## 🟢 Improving")
	writeTrendTable(&sb, rep, analysis.TrendStable, "## ⚪ Stable")

	return sb.String()
}

func writeTrendTable(
	sb *strings.Builder,
	rep *analysis.TrendReport,
	direction analysis.Direction,
	heading string,
) {
	names := rep.DirectionNames(direction)
	if len(names) == 0 {
		return
	}

	fmt.Fprintf(sb, "%s\n", heading)
	sb.WriteString("| Benchmark | Change | First | Last | Points |\n")
	sb.WriteString("|-----------|--------|-------|------|--------|\n")

	for _, name := range names {
		t := rep.Trends[name]

		fmt.Fprintf(sb, "| %s | %+.1f%% | %s | %s | %d |\n",
			name,
			t.ChangePercent,
			FormatNs(t.FirstValue),
			FormatNs(t.LastValue),
			t.DataPoints,
		)
	}

	sb.WriteByte('\n')
}

// sortedByChangeDesc returns a copy ordered by change percent, largest first.
func sortedByChangeDesc(changes []analysis.Change) []analysis.Change {
	sorted := make([]analysis.Change, len(changes))
	copy(sorted, changes)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ChangePercent > sorted[j].ChangePercent
	})

	return sorted
}

// sortedByMagnitudeDesc returns a copy ordered by absolute change percent.
func sortedByMagnitudeDesc(changes []analysis.Change) []analysis.Change {
	sorted := make([]analysis.Change, len(changes))
	copy(sorted, changes)

	sort.Slice(sorted, func(i, j int) bool {
		return abs(sorted[i].ChangePercent) > abs(sorted[j].ChangePercent)
	})

	return sorted
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}

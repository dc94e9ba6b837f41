package report

import (
	"fmt"
	"io"

	"github.com/ethpandaops/regressoor/pkg/analysis"
)

// WriteComparison writes a human-readable comparison summary to w.
func WriteComparison(w io.Writer, cmp *analysis.Comparison) {
	if len(cmp.Regressions) > 0 {
		fmt.Fprintln(w, "🔴 PERFORMANCE REGRESSIONS DETECTED:")

		for _, r := range sortedByChangeDesc(cmp.Regressions) {
			fmt.Fprintf(w, "  %s: +%.1f%% slower\n", r.Benchmark, r.ChangePercent)
			fmt.Fprintf(w, "    Current: %s, Baseline: %s\n",
				FormatNs(r.CurrentNs), FormatNs(r.BaselineNs))
		}

		fmt.Fprintln(w)
	}

	if len(cmp.Improvements) > 0 {
		fmt.Fprintln(w, "🟢 PERFORMANCE IMPROVEMENTS:")

		for _, i := range sortedByMagnitudeDesc(cmp.Improvements) {
			fmt.Fprintf(w, "  %s: +%.1f%% faster\n", i.Benchmark, -i.ChangePercent)
			fmt.Fprintf(w, "    Current: %s, Baseline: %s\n",
				FormatNs(i.CurrentNs), FormatNs(i.BaselineNs))
		}

		fmt.Fprintln(w)
	}

	if len(cmp.New) > 0 {
		fmt.Fprintln(w, "🆕 NEW BENCHMARKS:")

		for _, b := range cmp.New {
			fmt.Fprintf(w, "  %s: %s\n", b.Benchmark, FormatNs(b.MeanNs))
		}

		fmt.Fprintln(w)
	}

	if summary := cmp.Summary; summary != nil {
		fmt.Fprintln(w, "📈 SUMMARY:")
		fmt.Fprintf(w, "  Total benchmarks: %d\n", summary.TotalBenchmarks)
		fmt.Fprintf(w, "  Regressions: %d\n", summary.Regressions)
		fmt.Fprintf(w, "  Improvements: %d\n", summary.Improvements)
		fmt.Fprintf(w, "  Stable: %d\n", summary.Stable)
		fmt.Fprintf(w, "  New: %d\n", summary.New)
		fmt.Fprintf(w, "  Average change: %.1f%%\n", summary.AvgChange)
		fmt.Fprintf(w, "  Median change: %.1f%%\n", summary.MedianChange)

		if summary.MaxRegression > 0 {
			fmt.Fprintf(w, "  Max regression: +%.1f%%\n", summary.MaxRegression)
		}

		if summary.MaxImprovement > 0 {
			fmt.Fprintf(w, "  Max improvement: +%.1f%%\n", summary.MaxImprovement)
		}

		fmt.Fprintln(w)
	}

	if len(cmp.Regressions) == 0 && len(cmp.Improvements) == 0 && len(cmp.New) == 0 {
		fmt.Fprintln(w, "✅ No significant performance changes detected")
	}
}

// WriteTrends writes a human-readable trend summary to w.
func WriteTrends(w io.Writer, rep *analysis.TrendReport) {
	fmt.Fprintf(w, "Analyzed %d baselines over %d days\n",
		rep.BaselinesAnalyzed, rep.PeriodDays)

	if degrading := rep.DirectionNames(analysis.TrendDegrading); len(degrading) > 0 {
		fmt.Fprintf(w, "\n🔴 Degrading trends (%d benchmarks):\n", len(degrading))

		for _, name := range degrading {
			fmt.Fprintf(w, "  %s: %+.1f%% over period\n",
				name, rep.Trends[name].ChangePercent)
		}
	}

	if improving := rep.DirectionNames(analysis.TrendImproving); len(improving) > 0 {
		fmt.Fprintf(w, "\n🟢 Improving trends (%d benchmarks):\n", len(improving))

		for _, name := range improving {
			fmt.Fprintf(w, "  %s: %+.1f%% over period\n",
				name, rep.Trends[name].ChangePercent)
		}
	}
}

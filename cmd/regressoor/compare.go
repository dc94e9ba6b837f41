package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ethpandaops/regressoor/pkg/analysis"
	"github.com/ethpandaops/regressoor/pkg/baseline"
	"github.com/ethpandaops/regressoor/pkg/criterion"
	"github.com/ethpandaops/regressoor/pkg/report"
	"github.com/spf13/cobra"
)

var (
	compareBaseline  string
	compareThreshold float64
	compareReport    string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare current benchmark results against a baseline",
	Long: `Extract the current criterion results and classify each benchmark as a
regression, improvement, stable or new relative to a saved baseline.
Exits non-zero when regressions are found, for use as a CI gate.`,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVar(&compareBaseline, "baseline", "",
		"Baseline record filename to compare against (default: latest)")
	compareCmd.Flags().Float64Var(&compareThreshold, "threshold", 0,
		"Regression threshold percentage (default: from config, 10.0)")
	compareCmd.Flags().StringVar(&compareReport, "report", "",
		"Write a detailed markdown report to this file")
}

func runCompare(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	threshold := cfg.Analysis.Threshold
	if cmd.Flags().Changed("threshold") {
		if compareThreshold < 0 {
			return fmt.Errorf("threshold must not be negative")
		}

		threshold = compareThreshold
	}

	current, err := criterion.NewExtractor(log, cfg.Criterion.ResultsDir).Extract()
	if err != nil {
		return fmt.Errorf("extracting benchmark results: %w", err)
	}

	if len(current) == 0 {
		return fmt.Errorf(
			"no benchmark results found in %s, run the benchmarks first",
			cfg.Criterion.ResultsDir,
		)
	}

	store := baseline.NewStore(log, cfg.Baseline.Dir, nil)

	baseFile := compareBaseline
	if baseFile == "" {
		baseFile = baseline.LatestAlias
	}

	base, err := store.Load(baseFile)
	if err != nil {
		return fmt.Errorf("loading baseline: %w", err)
	}

	if len(base) == 0 {
		log.Warn("No baseline found for comparison, run 'regressoor save' to create one")

		return nil
	}

	comparison := analysis.Compare(current, base, threshold)

	report.WriteComparison(os.Stdout, comparison)

	if compareReport != "" {
		md := report.ComparisonMarkdown(comparison, time.Now())
		if err := os.WriteFile(compareReport, []byte(md), 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}

		log.WithField("file", compareReport).Info("Report written")
	}

	if n := len(comparison.Regressions); n > 0 {
		return fmt.Errorf("%d performance regressions detected", n)
	}

	return nil
}

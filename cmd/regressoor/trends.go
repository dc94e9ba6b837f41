package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ethpandaops/regressoor/pkg/analysis"
	"github.com/ethpandaops/regressoor/pkg/baseline"
	"github.com/ethpandaops/regressoor/pkg/report"
	"github.com/spf13/cobra"
)

var (
	trendsDays   int
	trendsReport string
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Analyze performance trends across baseline history",
	Long: `Classify each benchmark's mean duration as improving, degrading or
stable across all baselines saved within the lookback window.`,
	RunE: runTrends,
}

func init() {
	rootCmd.AddCommand(trendsCmd)
	trendsCmd.Flags().IntVar(&trendsDays, "days", 0,
		"Lookback window in days (default: from config, 30)")
	trendsCmd.Flags().StringVar(&trendsReport, "report", "",
		"Write a markdown trend report to this file")
}

func runTrends(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	days := cfg.Analysis.TrendWindowDays
	if cmd.Flags().Changed("days") {
		if trendsDays < 1 {
			return fmt.Errorf("days must be at least 1")
		}

		days = trendsDays
	}

	log.WithField("days", days).Info("Analyzing performance trends")

	since := time.Now().UTC().AddDate(0, 0, -days)

	entries, err := baseline.NewStore(log, cfg.Baseline.Dir, nil).LoadWindow(since)
	if err != nil {
		return fmt.Errorf("loading baseline history: %w", err)
	}

	trends, err := analysis.AnalyzeTrends(entries, days)
	if err != nil {
		return err
	}

	report.WriteTrends(os.Stdout, trends)

	if trendsReport != "" {
		md := report.TrendsMarkdown(trends, time.Now())
		if err := os.WriteFile(trendsReport, []byte(md), 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}

		log.WithField("file", trendsReport).Info("Report written")
	}

	return nil
}

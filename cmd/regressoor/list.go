package main

import (
	"fmt"
	"time"

	"github.com/ethpandaops/regressoor/pkg/baseline"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved baseline records",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	entries, err := baseline.NewStore(log, cfg.Baseline.Dir, nil).LoadWindow(time.Time{})
	if err != nil {
		return fmt.Errorf("scanning baseline directory: %w", err)
	}

	if len(entries) == 0 {
		log.Info("No baselines saved yet")

		return nil
	}

	fmt.Printf("%-20s %-24s %10s  %s\n", "CAPTURED (UTC)", "TAG", "BENCHMARKS", "FILE")

	for _, e := range entries {
		tag := e.Record.Tag
		if tag == "" {
			tag = "-"
		}

		fmt.Printf("%-20s %-24s %10d  %s\n",
			e.Record.CapturedAt.Format("2006-01-02 15:04:05"),
			tag,
			len(e.Snapshot),
			e.Record.File,
		)
	}

	return nil
}

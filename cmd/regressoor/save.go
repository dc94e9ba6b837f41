package main

import (
	"fmt"

	"github.com/ethpandaops/regressoor/pkg/baseline"
	"github.com/ethpandaops/regressoor/pkg/criterion"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var saveTag string

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save current benchmark results as a baseline",
	Long: `Extract the current criterion results and persist them as a new
timestamped baseline record. The latest alias is updated to point at it.`,
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)
	saveCmd.Flags().StringVar(&saveTag, "tag", "",
		"Optional tag embedded in the baseline filename (e.g. a version)")
}

func runSave(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snapshot, err := criterion.NewExtractor(log, cfg.Criterion.ResultsDir).Extract()
	if err != nil {
		return fmt.Errorf("extracting benchmark results: %w", err)
	}

	if len(snapshot) == 0 {
		return fmt.Errorf(
			"no benchmark results found in %s, run the benchmarks first",
			cfg.Criterion.ResultsDir,
		)
	}

	owner, err := baseline.ParseOwner(cfg.Baseline.Owner)
	if err != nil {
		return fmt.Errorf("parsing baseline owner: %w", err)
	}

	record, err := baseline.NewStore(log, cfg.Baseline.Dir, owner).Save(snapshot, saveTag)
	if err != nil {
		return fmt.Errorf("saving baseline: %w", err)
	}

	log.WithFields(logrus.Fields{
		"file":       record.File,
		"benchmarks": len(snapshot),
	}).Info("Baseline saved")

	return nil
}
